package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/normalization"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/apierr"
	"github.com/yungbote/studybits-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

const DefaultTopK = 5

type UsecasesDeps struct {
	Store   docstore.Store
	Log     *logger.Logger
	Metrics *observability.Metrics

	// Shuffle orders the final top-K list; nil means rand.Shuffle.
	Shuffle ShuffleFunc

	// Nil thresholds use the package defaults; zero is a valid setting.
	MatchThreshold    *float64
	DislikedThreshold *float64
	DefaultTopK       int
}

type Usecases struct {
	deps     UsecasesDeps
	match    float64
	disliked float64
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.DefaultTopK <= 0 {
		deps.DefaultTopK = DefaultTopK
	}
	deps.Log = deps.Log.With("module", "recommend")
	u := Usecases{deps: deps, match: DefaultMatchThreshold, disliked: DefaultDislikedThreshold}
	if deps.MatchThreshold != nil {
		u.match = *deps.MatchThreshold
	}
	if deps.DislikedThreshold != nil {
		u.disliked = *deps.DislikedThreshold
	}
	return u
}

type RecommendInput struct {
	UserID   string
	CourseID string
	UnitID   string
	UseUnits bool
	// TopK <= 0 selects the configured default.
	TopK int

	// Optional per-request threshold overrides.
	MatchThreshold    *float64
	DislikedThreshold *float64
}

// Recommend ranks (course, unit) groups of questions for a learner in the context
// of one course and, optionally, one unit.
func (u Usecases) Recommend(ctx context.Context, in RecommendInput) ([]GroupSummary, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.CourseID = strings.TrimSpace(in.CourseID)
	in.UnitID = strings.TrimSpace(in.UnitID)
	if in.UserID == "" {
		return nil, apierr.Validation("missing_uid", fmt.Errorf("uid is required"))
	}
	if in.CourseID == "" {
		return nil, apierr.Validation("missing_course_id", fmt.Errorf("course_id is required"))
	}
	topK := in.TopK
	if topK <= 0 {
		topK = u.deps.DefaultTopK
	}
	in.TopK = topK
	match := u.match
	if in.MatchThreshold != nil {
		if *in.MatchThreshold < 0 || *in.MatchThreshold > 1 {
			return nil, apierr.Validation("invalid_match_threshold", fmt.Errorf("match_threshold must be within [0, 1]"))
		}
		match = *in.MatchThreshold
	}
	disliked := u.disliked
	if in.DislikedThreshold != nil {
		if *in.DislikedThreshold < 0 || *in.DislikedThreshold > 1 {
			return nil, apierr.Validation("invalid_disliked_threshold", fmt.Errorf("disliked_threshold must be within [0, 1]"))
		}
		disliked = *in.DislikedThreshold
	}

	ctx, span := observability.Tracer().Start(ctx, "recommend.Recommend")
	defer span.End()
	span.SetAttributes(
		attribute.String("course_id", in.CourseID),
		attribute.String("unit_id", in.UnitID),
		attribute.Bool("use_units", in.UseUnits),
		attribute.Int("top_k", topK),
	)

	log := u.deps.Log.With(ctxutil.LogFields(ctx)...).With("user_id", in.UserID, "course_id", in.CourseID)
	start := time.Now()
	out, err := u.recommend(ctx, log, in, match, disliked)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Status < 500 {
			outcome = ae.Code
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("recommendation failed", "error", err)
		}
	}
	u.deps.Metrics.ObserveRecommendation(outcome, time.Since(start), len(out))
	return out, err
}

func (u Usecases) recommend(ctx context.Context, log *logger.Logger, in RecommendInput, match, disliked float64) ([]GroupSummary, error) {
	rec, ok, err := u.deps.Store.Get(ctx, docstore.LearningCoursesCollection(in.UserID), in.CourseID)
	if err != nil {
		return nil, storeErr("load learning state", err)
	}
	if !ok {
		return nil, apierr.NotFound("learning_state_not_found", fmt.Errorf("no learning state for this user and course"))
	}
	state := domain.LearningStateFromRecord(in.UserID, in.CourseID, rec)

	agg := newTagAggregator(u.deps.Store, log)
	liked, err := agg.TagsForQuestions(ctx, state.LikedQuestions)
	if err != nil {
		return nil, storeErr("liked tags", err)
	}
	dislikedTags, err := agg.TagsForQuestions(ctx, state.DislikedQuestions)
	if err != nil {
		return nil, storeErr("disliked tags", err)
	}
	courseTags, err := agg.TagsForCourse(ctx, in.CourseID)
	if err != nil {
		return nil, storeErr("course tags", err)
	}
	unitTags := normalization.TagSet{}
	if in.UseUnits && in.UnitID != "" {
		unitTags, err = agg.TagsForUnit(ctx, in.CourseID, in.UnitID)
		if err != nil {
			return nil, storeErr("unit tags", err)
		}
	}

	cands, err := scanner{
		store:   u.deps.Store,
		agg:     agg,
		log:     log,
		metrics: u.deps.Metrics,
	}.ScoreCandidates(ctx, ScoreInput{
		Liked:             liked,
		Disliked:          dislikedTags,
		CourseTags:        courseTags,
		UnitTags:          unitTags,
		Answered:          idSet(state.AnsweredQuestions),
		Subscribed:        idSet(state.SubscribedCourses),
		MatchThreshold:    match,
		DislikedThreshold: disliked,
		ReferenceCourseID: in.CourseID,
		ReferenceUnitID:   in.UnitID,
	})
	if err != nil {
		return nil, storeErr("score candidates", err)
	}

	out := Rank(ctx, cands, in.TopK, agg, u.deps.Shuffle)
	log.Info("recommendation complete", "candidates", len(cands), "groups", len(out))
	return out, nil
}

func storeErr(op string, err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apierr.Internal("store_error", fmt.Errorf("%s: %w", op, err))
}

func idSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
