package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/normalization"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type unitKey struct {
	courseID string
	unitID   string
}

type courseEntry struct {
	course domain.Course
	tags   normalization.TagSet
	found  bool
}

type unitEntry struct {
	unit  domain.Unit
	tags  normalization.TagSet
	found bool
}

// tagAggregator resolves normalized tag sets from the store. Its caches live for a
// single request so course and unit edits are visible on the next call.
type tagAggregator struct {
	store docstore.Store
	log   *logger.Logger

	courses map[string]courseEntry
	units   map[unitKey]unitEntry
}

func newTagAggregator(store docstore.Store, log *logger.Logger) *tagAggregator {
	return &tagAggregator{
		store:   store,
		log:     log,
		courses: map[string]courseEntry{},
		units:   map[unitKey]unitEntry{},
	}
}

// TagsForQuestions unions the tags of the given questions. Missing questions are
// skipped; a failed fetch is logged and skipped unless the store is unreachable.
func (a *tagAggregator) TagsForQuestions(ctx context.Context, ids []string) (normalization.TagSet, error) {
	out := normalization.TagSet{}
	for _, id := range ids {
		rec, ok, err := a.store.Get(ctx, docstore.QuestionsCollection, id)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			a.log.Warn("question fetch failed; skipping", "question_id", id, "error", err)
			continue
		}
		if !ok {
			continue
		}
		out.AddAll(normalization.NormalizeTags(domain.QuestionFromRecord(id, rec).Tags))
	}
	return out, nil
}

func (a *tagAggregator) course(ctx context.Context, courseID string) (courseEntry, error) {
	if courseID == "" {
		return courseEntry{tags: normalization.TagSet{}}, nil
	}
	if e, ok := a.courses[courseID]; ok {
		return e, nil
	}
	rec, ok, err := a.store.Get(ctx, docstore.CoursesCollection, courseID)
	if err != nil {
		return courseEntry{}, fmt.Errorf("get course %s: %w", courseID, err)
	}
	e := courseEntry{tags: normalization.TagSet{}, found: ok}
	if ok {
		e.course = domain.CourseFromRecord(courseID, rec)
		e.tags = normalization.NormalizeTags(e.course.Tags)
	}
	a.courses[courseID] = e
	return e, nil
}

func (a *tagAggregator) unit(ctx context.Context, courseID, unitID string) (unitEntry, error) {
	if courseID == "" || unitID == "" {
		return unitEntry{tags: normalization.TagSet{}}, nil
	}
	key := unitKey{courseID: courseID, unitID: unitID}
	if e, ok := a.units[key]; ok {
		return e, nil
	}
	rec, ok, err := a.store.Get(ctx, docstore.UnitsCollection(courseID), unitID)
	if err != nil {
		return unitEntry{}, fmt.Errorf("get unit %s/%s: %w", courseID, unitID, err)
	}
	e := unitEntry{tags: normalization.TagSet{}, found: ok}
	if ok {
		e.unit = domain.UnitFromRecord(courseID, unitID, rec)
		e.tags = normalization.NormalizeTags(e.unit.Tags)
	}
	a.units[key] = e
	return e, nil
}

// TagsForCourse returns an empty set for a missing course.
func (a *tagAggregator) TagsForCourse(ctx context.Context, courseID string) (normalization.TagSet, error) {
	e, err := a.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return e.tags, nil
}

// TagsForUnit returns an empty set for a missing unit.
func (a *tagAggregator) TagsForUnit(ctx context.Context, courseID, unitID string) (normalization.TagSet, error) {
	e, err := a.unit(ctx, courseID, unitID)
	if err != nil {
		return nil, err
	}
	return e.tags, nil
}

// EffectiveTags is the question's own tags plus its course's and unit's tags.
func (a *tagAggregator) EffectiveTags(ctx context.Context, q domain.Question) (normalization.TagSet, error) {
	courseTags, err := a.TagsForCourse(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}
	unitTags, err := a.TagsForUnit(ctx, q.CourseID, q.UnitID)
	if err != nil {
		return nil, err
	}
	return normalization.Union(normalization.NormalizeTags(q.Tags), courseTags, unitTags), nil
}

// CourseName reports the source course name when the course exists.
func (a *tagAggregator) CourseName(ctx context.Context, courseID string) (string, bool) {
	e, err := a.course(ctx, courseID)
	if err != nil {
		a.log.Warn("course name lookup failed", "course_id", courseID, "error", err)
		return "", false
	}
	return e.course.Name, e.found
}

func (a *tagAggregator) UnitName(ctx context.Context, courseID, unitID string) (string, bool) {
	e, err := a.unit(ctx, courseID, unitID)
	if err != nil {
		a.log.Warn("unit name lookup failed", "course_id", courseID, "unit_id", unitID, "error", err)
		return "", false
	}
	return e.unit.Name, e.found
}

// isFatal reports errors that abort the whole request rather than one document.
func isFatal(err error) bool {
	return errors.Is(err, docstore.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
