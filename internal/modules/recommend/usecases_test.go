package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/platform/apierr"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

func newTestUsecases(store docstore.Store) Usecases {
	return New(UsecasesDeps{Store: store, Log: logger.Nop(), Shuffle: noShuffle})
}

func putQuestion(s *docstore.MemoryStore, q domain.Question) {
	s.MustPut(docstore.QuestionsCollection, q.ID, q.Record())
}

func putState(s *docstore.MemoryStore, uid, courseID string, st domain.LearningState) {
	s.MustPut(docstore.LearningCoursesCollection(uid), courseID, st.Record())
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if ae.Status != status {
		t.Fatalf("status=%d, want %d (%v)", ae.Status, status, ae)
	}
}

func TestRecommendAlgebraBasicsEndToEnd(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"Algebra", "Math"}}.Record())
	// c9 has no course document, so its questions carry only their own tags.
	putQuestion(store, domain.Question{ID: "liked", CourseID: "c9", CourseName: "Old Algebra", Tags: []string{"algebra"}})
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c9", CourseName: "Old Algebra", Tags: []string{"Algebra Basics"}})
	putQuestion(store, domain.Question{ID: "off", CourseID: "c9", Tags: []string{"Poetry"}})
	putState(store, "u1", "c1", domain.LearningState{LikedQuestions: []string{"liked"}})

	out, err := newTestUsecases(store).Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("groups=%d, want 1: %+v", len(out), out)
	}
	g := out[0]
	if g.CourseID != "c9" || g.CourseName != "Old Algebra" || g.UnitID != nil || g.UnitName != nil {
		t.Fatalf("unexpected group: %+v", g)
	}
	if !reflect.DeepEqual(g.Questions, []string{"liked", "q1"}) {
		t.Fatalf("questions=%v", g.Questions)
	}
}

func TestRecommendRanksAndTruncates(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Algebra", Tags: []string{"algebra"}}.Record())
	store.MustPut(docstore.UnitsCollection("c1"), "u1", domain.Unit{Name: "Linear", Tags: []string{"linear"}}.Record())
	store.MustPut(docstore.CoursesCollection, "c2", domain.Course{Name: "Algebra II", Tags: []string{"algebra"}}.Record())
	store.MustPut(docstore.CoursesCollection, "c3", domain.Course{Name: "Pre-Algebra", Tags: []string{"algebra"}}.Record())
	putQuestion(store, domain.Question{ID: "a", CourseID: "c3", Tags: []string{"linear"}})
	putQuestion(store, domain.Question{ID: "b", CourseID: "c2", Tags: []string{"linear"}})
	putQuestion(store, domain.Question{ID: "c", CourseID: "c1", UnitID: "u1", Tags: []string{"linear"}})
	putQuestion(store, domain.Question{ID: "d", CourseID: "c1", UnitID: "u1"})
	putState(store, "u1", "c1", domain.LearningState{
		SubscribedCourses: []string{"c2"},
		AnsweredQuestions: []string{"d"},
	})

	uc := newTestUsecases(store)
	out, err := uc.Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1", UnitID: "u1", UseUnits: true, TopK: 2})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// c1/u1: c (same course + same unit = 2) + d (2 - 1 answered = 1) = 3
	// c2: subscribed = 1; c3: nothing = 0 and falls outside top 2.
	got := []string{}
	for _, g := range out {
		got = append(got, g.CourseID)
	}
	if !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Fatalf("courses=%v, want [c1 c2]", got)
	}
	if out[0].UnitName == nil || *out[0].UnitName != "Linear" || out[0].CourseName != "Algebra" {
		t.Fatalf("names not resolved from source: %+v", out[0])
	}
}

func TestRecommendValidation(t *testing.T) {
	uc := newTestUsecases(docstore.NewMemoryStore())
	cases := []struct {
		name string
		in   RecommendInput
	}{
		{"missing uid", RecommendInput{CourseID: "c1"}},
		{"missing course", RecommendInput{UserID: "u1", CourseID: "  "}},
		{"bad match threshold", RecommendInput{UserID: "u1", CourseID: "c1", MatchThreshold: ptr(1.5)}},
		{"bad disliked threshold", RecommendInput{UserID: "u1", CourseID: "c1", DislikedThreshold: ptr(-0.1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Recommend(context.Background(), tc.in)
			wantStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestRecommendLearningStateNotFound(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"math"}}.Record())
	_, err := newTestUsecases(store).Recommend(context.Background(), RecommendInput{UserID: "nobody", CourseID: "c1"})
	wantStatus(t, err, http.StatusNotFound)
}

func TestRecommendSkipsFailedDocuments(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"algebra"}}.Record())
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c1", UnitID: "u1", Tags: []string{"algebra"}})
	putQuestion(store, domain.Question{ID: "q2", CourseID: "c1", UnitID: "u2", Tags: []string{"algebra"}})
	putState(store, "u1", "c1", domain.LearningState{LikedQuestions: []string{"broken"}})
	store.GetErr = func(collection, id string) error {
		if collection == docstore.UnitsCollection("c1") && id == "u2" {
			return fmt.Errorf("decode unit: bad field")
		}
		if collection == docstore.QuestionsCollection && id == "broken" {
			return fmt.Errorf("decode question: bad field")
		}
		return nil
	}

	out, err := newTestUsecases(store).Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 1 || !reflect.DeepEqual(out[0].Questions, []string{"q1"}) {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRecommendStoreUnavailable(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"algebra"}}.Record())
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c1", UnitID: "u1", Tags: []string{"algebra"}})
	putState(store, "u1", "c1", domain.LearningState{})
	store.GetErr = func(collection, _ string) error {
		if collection == docstore.UnitsCollection("c1") {
			return fmt.Errorf("%w: connection refused", docstore.ErrUnavailable)
		}
		return nil
	}
	_, err := newTestUsecases(store).Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1"})
	wantStatus(t, err, http.StatusInternalServerError)
	if !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable in chain, got %v", err)
	}
}

func TestRecommendEmptyCurriculum(t *testing.T) {
	store := docstore.NewMemoryStore()
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c1", Tags: []string{"algebra"}})
	putState(store, "u1", "c1", domain.LearningState{})
	out, err := newTestUsecases(store).Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no groups, got %+v", out)
	}
}

func TestRecommendThresholdOverride(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"algebra", "geometry", "calculus"}}.Record())
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c2", Tags: []string{"algebra"}})
	putState(store, "u1", "c1", domain.LearningState{})

	uc := newTestUsecases(store)
	out, err := uc.Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1"})
	if err != nil || len(out) != 0 {
		t.Fatalf("default threshold should reject 1/3 match: out=%+v err=%v", out, err)
	}
	out, err = uc.Recommend(context.Background(), RecommendInput{UserID: "u1", CourseID: "c1", MatchThreshold: ptr(0.3)})
	if err != nil || len(out) != 1 {
		t.Fatalf("override should accept: out=%+v err=%v", out, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestRecommendHonorsConfiguredZeroThreshold(t *testing.T) {
	store := docstore.NewMemoryStore()
	store.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Math", Tags: []string{"algebra"}}.Record())
	putQuestion(store, domain.Question{ID: "qd", CourseID: "c9", Tags: []string{"poetry"}})
	putQuestion(store, domain.Question{ID: "q1", CourseID: "c9", Tags: []string{"algebra", "poetry", "calculus"}})
	putState(store, "u1", "c1", domain.LearningState{DislikedQuestions: []string{"qd"}})
	in := RecommendInput{UserID: "u1", CourseID: "c1"}

	// 1/3 of q1's tags are disliked: under the 0.4 default, over a configured 0.
	out, err := newTestUsecases(store).Recommend(context.Background(), in)
	if err != nil || len(out) != 1 {
		t.Fatalf("default threshold should accept q1: out=%+v err=%v", out, err)
	}
	strict := New(UsecasesDeps{Store: store, Log: logger.Nop(), Shuffle: noShuffle, DislikedThreshold: ptr(0.0)})
	out, err = strict.Recommend(context.Background(), in)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("configured zero dislike tolerance was replaced by the default: %+v", out)
	}
}
