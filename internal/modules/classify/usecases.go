package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/platform/apierr"
	"github.com/yungbote/studybits-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	Store docstore.Store
	Log   *logger.Logger
	// Tagger is nil when no model is configured; every call then fails with 503.
	Tagger TagGenerator
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("module", "classify")
	return Usecases{deps: deps}
}

func (u Usecases) ClassifyQuestion(ctx context.Context, questionID string) ([]string, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return nil, apierr.Validation("missing_question_id", fmt.Errorf("question_id is required"))
	}
	rec, ok, err := u.deps.Store.Get(ctx, docstore.QuestionsCollection, questionID)
	if err != nil {
		return nil, apierr.Internal("store_error", fmt.Errorf("get question: %w", err))
	}
	if !ok {
		return nil, apierr.NotFound("question_not_found", fmt.Errorf("question %s not found", questionID))
	}
	q := domain.QuestionFromRecord(questionID, rec)
	if q.Text == "" && len(q.Hints) == 0 {
		return nil, apierr.New(http.StatusUnprocessableEntity, "question_empty", fmt.Errorf("question %s has no text or hints", questionID))
	}
	return u.classify(ctx, questionPrompt(q), "question_id", questionID)
}

func (u Usecases) ClassifyCourse(ctx context.Context, courseName string) ([]string, error) {
	courseName = strings.TrimSpace(courseName)
	if courseName == "" {
		return nil, apierr.Validation("missing_course_name", fmt.Errorf("course_name is required"))
	}
	return u.classify(ctx, coursePrompt(courseName), "course_name", courseName)
}

func (u Usecases) ClassifyUnit(ctx context.Context, unitName string) ([]string, error) {
	unitName = strings.TrimSpace(unitName)
	if unitName == "" {
		return nil, apierr.Validation("missing_unit_name", fmt.Errorf("unit_name is required"))
	}
	return u.classify(ctx, unitPrompt(unitName), "unit_name", unitName)
}

func (u Usecases) classify(ctx context.Context, p Prompt, subjectKey, subject string) ([]string, error) {
	if u.deps.Tagger == nil {
		return nil, apierr.Unavailable("tagger_unavailable", fmt.Errorf("no tag generator configured"))
	}
	log := u.deps.Log.With(ctxutil.LogFields(ctx)...).With("kind", p.Kind, subjectKey, subject)
	raw, err := u.deps.Tagger.Generate(ctx, p)
	if err != nil {
		if errors.Is(err, ErrTaggerUnavailable) {
			log.Warn("tag generator shedding load", "error", err)
			return nil, apierr.Unavailable("tagger_unavailable", err)
		}
		log.Error("tag generation failed", "error", err)
		return nil, apierr.New(http.StatusBadGateway, "tagger_failed", err)
	}
	tags := ParseTags(raw)
	log.Debug("classified", "tags", len(tags))
	return tags, nil
}
