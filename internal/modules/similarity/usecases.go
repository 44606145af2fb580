package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/platform/apierr"
	"github.com/yungbote/studybits-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

const (
	DefaultTopK            = 5
	DefaultCourseThreshold = 0.5
	DefaultUnitThreshold   = 0.5
)

type UsecasesDeps struct {
	Store docstore.Store
	Log   *logger.Logger

	// Nil thresholds use the package defaults; zero is a valid setting.
	CourseThreshold *float64
	UnitThreshold   *float64
	DefaultTopK     int
}

type Usecases struct {
	deps            UsecasesDeps
	courseThreshold float64
	unitThreshold   float64
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.DefaultTopK <= 0 {
		deps.DefaultTopK = DefaultTopK
	}
	deps.Log = deps.Log.With("module", "similarity")
	u := Usecases{deps: deps, courseThreshold: DefaultCourseThreshold, unitThreshold: DefaultUnitThreshold}
	if deps.CourseThreshold != nil {
		u.courseThreshold = *deps.CourseThreshold
	}
	if deps.UnitThreshold != nil {
		u.unitThreshold = *deps.UnitThreshold
	}
	return u
}

type FindInput struct {
	CourseID string
	UnitID   string
	TopK     int

	UnitThreshold   *float64
	CourseThreshold *float64
}

// Match is one (course, unit) entry of the similar-courses response.
type Match struct {
	CourseID   string   `json:"course_id"`
	CourseName string   `json:"course_name"`
	UnitID     string   `json:"unit_id"`
	UnitName   string   `json:"unit_name"`
	Questions  []string `json:"questions"`
}

type similarCourse struct {
	course domain.Course
	score  float64
}

type similarUnit struct {
	unit  domain.Unit
	score float64
}

// FindSimilar lists units of courses whose names resemble the target course. With a
// unit, every unit whose text resembles the target unit is listed, best first within
// each course, and TopK is not applied. Without one, every unit of the first TopK
// similar courses is listed.
func (u Usecases) FindSimilar(ctx context.Context, in FindInput) ([]Match, error) {
	in.CourseID = strings.TrimSpace(in.CourseID)
	in.UnitID = strings.TrimSpace(in.UnitID)
	if in.CourseID == "" {
		return nil, apierr.Validation("missing_course_id", fmt.Errorf("course_id is required"))
	}
	topK := in.TopK
	if topK <= 0 {
		topK = u.deps.DefaultTopK
	}
	courseThreshold, err := threshold(in.CourseThreshold, u.courseThreshold, "course_similarity_threshold")
	if err != nil {
		return nil, err
	}
	unitThreshold, err := threshold(in.UnitThreshold, u.unitThreshold, "unit_similarity_threshold")
	if err != nil {
		return nil, err
	}
	log := u.deps.Log.With(ctxutil.LogFields(ctx)...).With("course_id", in.CourseID, "unit_id", in.UnitID)

	rec, ok, err := u.deps.Store.Get(ctx, docstore.CoursesCollection, in.CourseID)
	if err != nil {
		return nil, apierr.Internal("store_error", fmt.Errorf("get course: %w", err))
	}
	if !ok {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course %s not found", in.CourseID))
	}
	target := domain.CourseFromRecord(in.CourseID, rec)

	var targetUnit domain.Unit
	if in.UnitID != "" {
		rec, ok, err := u.deps.Store.Get(ctx, docstore.UnitsCollection(in.CourseID), in.UnitID)
		if err != nil {
			return nil, apierr.Internal("store_error", fmt.Errorf("get unit: %w", err))
		}
		if !ok {
			return nil, apierr.NotFound("unit_not_found", fmt.Errorf("unit %s not found in course %s", in.UnitID, in.CourseID))
		}
		targetUnit = domain.UnitFromRecord(in.CourseID, in.UnitID, rec)
	}

	courses, err := u.similarCourses(ctx, target, courseThreshold)
	if err != nil {
		return nil, apierr.Internal("store_error", err)
	}

	out := []Match{}
	if in.UnitID != "" {
		targetText := unitText(targetUnit)
		for _, sc := range courses {
			if sc.course.NumQuestions < 1 {
				continue
			}
			units, err := u.similarUnits(ctx, sc.course.ID, targetText, unitThreshold)
			if err != nil {
				if errors.Is(err, docstore.ErrUnavailable) {
					return nil, apierr.Internal("store_error", err)
				}
				log.Warn("unit scan failed; skipping course", "similar_course_id", sc.course.ID, "error", err)
				continue
			}
			for _, su := range units {
				out = append(out, match(sc.course, su.unit))
			}
		}
		log.Debug("similar units found", "courses", len(courses), "matches", len(out))
		return out, nil
	}

	if len(courses) > topK {
		courses = courses[:topK]
	}
	for _, sc := range courses {
		if sc.course.NumQuestions < 1 {
			continue
		}
		units, err := u.units(ctx, sc.course.ID)
		if err != nil {
			if errors.Is(err, docstore.ErrUnavailable) {
				return nil, apierr.Internal("store_error", err)
			}
			log.Warn("unit scan failed; skipping course", "similar_course_id", sc.course.ID, "error", err)
			continue
		}
		for _, unit := range units {
			out = append(out, match(sc.course, unit))
		}
	}
	log.Debug("similar courses found", "courses", len(courses), "matches", len(out))
	return out, nil
}

func (u Usecases) similarCourses(ctx context.Context, target domain.Course, threshold float64) ([]similarCourse, error) {
	it := u.deps.Store.Stream(ctx, docstore.CoursesCollection)
	defer it.Stop()
	var out []similarCourse
	for {
		doc, err := it.Next()
		if errors.Is(err, docstore.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream courses: %w", err)
		}
		c := domain.CourseFromRecord(doc.ID, doc.Data)
		if score := NGramSimilarity(target.Name, c.Name); score >= threshold {
			out = append(out, similarCourse{course: c, score: score})
		}
	}
}

func (u Usecases) similarUnits(ctx context.Context, courseID, targetText string, threshold float64) ([]similarUnit, error) {
	units, err := u.units(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var out []similarUnit
	for _, unit := range units {
		score := NGramSimilarity(targetText, unitText(unit))
		if score >= threshold && len(unit.Questions) > 0 {
			out = append(out, similarUnit{unit: unit, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out, nil
}

func (u Usecases) units(ctx context.Context, courseID string) ([]domain.Unit, error) {
	it := u.deps.Store.Stream(ctx, docstore.UnitsCollection(courseID))
	defer it.Stop()
	var out []domain.Unit
	for {
		doc, err := it.Next()
		if errors.Is(err, docstore.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream units of %s: %w", courseID, err)
		}
		out = append(out, domain.UnitFromRecord(courseID, doc.ID, doc.Data))
	}
}

func unitText(u domain.Unit) string {
	return u.Name + " " + u.Description
}

func match(c domain.Course, u domain.Unit) Match {
	return Match{
		CourseID:   c.ID,
		CourseName: c.Name,
		UnitID:     u.ID,
		UnitName:   u.Name,
		Questions:  u.Questions,
	}
}

func threshold(override *float64, def float64, field string) (float64, error) {
	if override == nil {
		return def, nil
	}
	if *override < 0 || *override > 1 {
		return 0, apierr.Validation("invalid_"+field, fmt.Errorf("%s must be within [0, 1]", field))
	}
	return *override, nil
}
