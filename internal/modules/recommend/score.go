package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/normalization"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

const (
	DefaultMatchThreshold    = 0.5
	DefaultDislikedThreshold = 0.4
)

// Rejection reasons, also used as metric labels.
const (
	RejectNoCurriculum = "no_curriculum"
	RejectNoTags       = "no_tags"
	RejectDisliked     = "disliked"
	RejectMatch        = "match"
)

type ScoreInput struct {
	Liked      normalization.TagSet
	Disliked   normalization.TagSet
	CourseTags normalization.TagSet
	UnitTags   normalization.TagSet

	Answered   map[string]struct{}
	Subscribed map[string]struct{}

	MatchThreshold    float64
	DislikedThreshold float64

	ReferenceCourseID string
	ReferenceUnitID   string
}

// Candidate is one accepted question. Score is the raw liked-tag overlap and
// LikedBoost its normalized 0..2 form. Groups sort on summed Priority, which
// includes LikedBoost, then on summed Score.
type Candidate struct {
	QuestionID string
	CourseID   string
	UnitID     string

	// Denormalized names from the question document, used only when the source
	// course or unit record is gone.
	CourseName string
	UnitName   string

	Score      int
	LikedBoost float64
	Priority   float64
}

func (in ScoreInput) curriculum() normalization.TagSet {
	return normalization.Union(in.CourseTags, in.UnitTags)
}

// Evaluate applies the relevance filter and scoring to one question with its
// effective tags. It returns the rejection reason when the question is dropped.
func Evaluate(in ScoreInput, curriculum normalization.TagSet, q domain.Question, effective normalization.TagSet) (Candidate, string, bool) {
	if curriculum.Empty() {
		return Candidate{}, RejectNoCurriculum, false
	}
	if effective.Empty() {
		return Candidate{}, RejectNoTags, false
	}
	size := float64(effective.Len())

	// Disliked tags the curriculum itself needs are forgiven.
	disallowed := effective.Intersect(in.Disliked).Minus(curriculum)
	if float64(disallowed.Len())/size > in.DislikedThreshold {
		return Candidate{}, RejectDisliked, false
	}
	matchRatio := float64(effective.IntersectCount(curriculum)) / float64(curriculum.Len())
	if matchRatio < in.MatchThreshold {
		return Candidate{}, RejectMatch, false
	}

	likedOverlap := effective.IntersectCount(in.Liked)
	likedBoost := round2(float64(likedOverlap) / size * 2)

	priority := likedBoost
	if _, ok := in.Subscribed[q.CourseID]; ok {
		priority++
	}
	if q.CourseID == in.ReferenceCourseID {
		priority++
	}
	if in.ReferenceUnitID != "" && q.UnitID == in.ReferenceUnitID {
		priority++
	}
	if _, ok := in.Answered[q.ID]; ok {
		priority--
	}

	return Candidate{
		QuestionID: q.ID,
		CourseID:   q.CourseID,
		UnitID:     q.UnitID,
		CourseName: q.CourseName,
		UnitName:   q.UnitName,
		Score:      likedOverlap,
		LikedBoost: likedBoost,
		Priority:   priority,
	}, "", true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type scanner struct {
	store   docstore.Store
	agg     *tagAggregator
	log     *logger.Logger
	metrics *observability.Metrics
}

// ScoreCandidates scans every question and returns the accepted candidates in scan
// order. A question whose course or unit cannot be read is logged and skipped; only
// an unreachable store or a cancelled request aborts the scan.
func (s scanner) ScoreCandidates(ctx context.Context, in ScoreInput) ([]Candidate, error) {
	curriculum := in.curriculum()
	if curriculum.Empty() {
		// Every question would be rejected.
		s.log.Debug("empty curriculum; nothing to score")
		return nil, nil
	}
	it := s.store.Stream(ctx, docstore.QuestionsCollection)
	defer it.Stop()

	var (
		out      []Candidate
		scanned  int
		skipped  int
		rejected = map[string]int{}
	)
	for {
		doc, err := it.Next()
		if errors.Is(err, docstore.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream questions: %w", err)
		}
		scanned++
		s.metrics.IncScanned()

		q := domain.QuestionFromRecord(doc.ID, doc.Data)
		effective, err := s.agg.EffectiveTags(ctx, q)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			skipped++
			s.metrics.IncSkipped()
			s.log.Warn("effective tags unavailable; skipping question", "question_id", q.ID, "course_id", q.CourseID, "error", err)
			continue
		}
		c, reason, ok := Evaluate(in, curriculum, q, effective)
		if !ok {
			rejected[reason]++
			s.metrics.IncRejected(reason)
			continue
		}
		out = append(out, c)
	}
	s.log.Debug("candidate scan complete",
		"scanned", scanned,
		"accepted", len(out),
		"skipped", skipped,
		"rejected", rejected,
	)
	return out, nil
}
