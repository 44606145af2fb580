package recommend

import (
	"testing"

	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/normalization"
)

func baseInput() ScoreInput {
	return ScoreInput{
		Liked:             normalization.TagSet{},
		Disliked:          normalization.TagSet{},
		CourseTags:        normalization.TagSet{},
		UnitTags:          normalization.TagSet{},
		MatchThreshold:    DefaultMatchThreshold,
		DislikedThreshold: DefaultDislikedThreshold,
	}
}

func evaluate(in ScoreInput, q domain.Question, effective normalization.TagSet) (Candidate, string, bool) {
	return Evaluate(in, in.curriculum(), q, effective)
}

func TestEvaluateAlgebraBasicsScenario(t *testing.T) {
	in := baseInput()
	in.Liked = normalization.NewTagSet("algebra")
	in.CourseTags = normalization.NewTagSet("algebra", "math")
	in.ReferenceCourseID = "ref"

	q := domain.Question{ID: "q1", CourseID: "other", Tags: []string{"Algebra Basics"}}
	effective := normalization.NormalizeTags(q.Tags)
	if !effective.Equal(normalization.NewTagSet("algebra", "basic")) {
		t.Fatalf("effective=%v", effective.Sorted())
	}
	c, reason, ok := evaluate(in, q, effective)
	if !ok {
		t.Fatalf("rejected: %s", reason)
	}
	if c.Score != 1 || c.LikedBoost != 1.0 || c.Priority != 1.0 {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	effective := normalization.NewTagSet("a", "b", "c", "d", "e")
	q := domain.Question{ID: "q", CourseID: "c1"}

	cases := []struct {
		name     string
		disliked []string
		course   []string
		match    float64
		dislike  float64
		wantOK   bool
		reason   string
	}{
		{"dislike ratio equal to threshold kept", []string{"a", "b"}, []string{"c", "d"}, 0.5, 0.4, true, ""},
		{"dislike ratio above threshold rejected", []string{"a", "b"}, []string{"c", "d"}, 0.5, 0.4 - 1e-9, false, RejectDisliked},
		{"three of five disliked rejected", []string{"a", "b", "e"}, []string{"c", "d"}, 0.5, 0.4, false, RejectDisliked},
		{"curriculum forgives dislikes", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 0.5, 0.4, true, ""},
		{"match ratio equal to threshold kept", nil, []string{"c", "d", "x", "y"}, 0.5, 0.4, true, ""},
		{"match ratio below threshold rejected", nil, []string{"c", "d", "x", "y"}, 0.5 + 1e-9, 0.4, false, RejectMatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			in.Disliked = normalization.NewTagSet(tc.disliked...)
			in.CourseTags = normalization.NewTagSet(tc.course...)
			in.MatchThreshold = tc.match
			in.DislikedThreshold = tc.dislike
			_, reason, ok := evaluate(in, q, effective)
			if ok != tc.wantOK || reason != tc.reason {
				t.Fatalf("ok=%v reason=%q, want ok=%v reason=%q", ok, reason, tc.wantOK, tc.reason)
			}
		})
	}
}

func TestEvaluateCurriculumRejection(t *testing.T) {
	in := baseInput()
	in.Liked = normalization.NewTagSet("a", "b")
	in.CourseTags = normalization.NewTagSet("x")
	_, reason, ok := evaluate(in, domain.Question{ID: "q"}, normalization.NewTagSet("a", "b"))
	if ok || reason != RejectMatch {
		t.Fatalf("ok=%v reason=%q", ok, reason)
	}

	in.CourseTags = normalization.TagSet{}
	_, reason, ok = evaluate(in, domain.Question{ID: "q"}, normalization.NewTagSet("a"))
	if ok || reason != RejectNoCurriculum {
		t.Fatalf("ok=%v reason=%q", ok, reason)
	}

	in.CourseTags = normalization.NewTagSet("a")
	_, reason, ok = evaluate(in, domain.Question{ID: "q"}, normalization.TagSet{})
	if ok || reason != RejectNoTags {
		t.Fatalf("ok=%v reason=%q", ok, reason)
	}
}

func TestEvaluateBoosts(t *testing.T) {
	in := baseInput()
	in.CourseTags = normalization.NewTagSet("a")
	in.Liked = normalization.NewTagSet("a")
	in.Subscribed = idSet([]string{"c1"})
	in.Answered = idSet([]string{"q1"})
	in.ReferenceCourseID = "c1"
	in.ReferenceUnitID = "u1"

	effective := normalization.NewTagSet("a", "b", "c")
	cases := []struct {
		name string
		q    domain.Question
		want float64
	}{
		// likedBoost = round(2/3, 2) = 0.67
		{"all boosts and answered", domain.Question{ID: "q1", CourseID: "c1", UnitID: "u1"}, 0.67 + 1 + 1 + 1 - 1},
		{"subscribed and same course", domain.Question{ID: "q2", CourseID: "c1", UnitID: "u2"}, 0.67 + 1 + 1},
		{"same unit in another course", domain.Question{ID: "q3", CourseID: "c2", UnitID: "u1"}, 0.67 + 1},
		{"answered elsewhere", domain.Question{ID: "q1", CourseID: "c9"}, 0.67 - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, reason, ok := evaluate(in, tc.q, effective)
			if !ok {
				t.Fatalf("rejected: %s", reason)
			}
			if c.LikedBoost != 0.67 || c.Score != 1 {
				t.Fatalf("likedBoost=%v score=%d", c.LikedBoost, c.Score)
			}
			if diff := c.Priority - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("priority=%v, want %v", c.Priority, tc.want)
			}
		})
	}
}

func TestEvaluateUnsetReferenceUnitGivesNoUnitBoost(t *testing.T) {
	in := baseInput()
	in.CourseTags = normalization.NewTagSet("a")
	c, _, ok := evaluate(in, domain.Question{ID: "q", CourseID: "c2"}, normalization.NewTagSet("a"))
	if !ok || c.Priority != 0 {
		t.Fatalf("ok=%v priority=%v", ok, c.Priority)
	}
}
