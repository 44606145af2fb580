package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
	httpH "github.com/yungbote/studybits-backend/internal/http/handlers"
	"github.com/yungbote/studybits-backend/internal/http/response"
	"github.com/yungbote/studybits-backend/internal/modules/classify"
	"github.com/yungbote/studybits-backend/internal/modules/recommend"
	"github.com/yungbote/studybits-backend/internal/modules/similarity"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type staticTagger string

func (s staticTagger) Generate(context.Context, classify.Prompt) (string, error) {
	return string(s), nil
}

func seedStore() *docstore.MemoryStore {
	s := docstore.NewMemoryStore()
	s.MustPut(docstore.CoursesCollection, "c1", domain.Course{Name: "Algebra I", Tags: []string{"algebra"}, NumQuestions: 2}.Record())
	s.MustPut(docstore.CoursesCollection, "c2", domain.Course{Name: "Algebra I Honors", Tags: []string{"algebra"}, NumQuestions: 1}.Record())
	s.MustPut(docstore.UnitsCollection("c1"), "u1", domain.Unit{Name: "Linear Equations", Questions: []string{"q1"}}.Record())
	s.MustPut(docstore.UnitsCollection("c2"), "u2", domain.Unit{Name: "Linear Equations", Questions: []string{"q2"}}.Record())
	s.MustPut(docstore.QuestionsCollection, "q1", domain.Question{CourseID: "c1", UnitID: "u1", Tags: []string{"algebra"}, Text: "Solve x+1=2"}.Record())
	s.MustPut(docstore.QuestionsCollection, "q2", domain.Question{CourseID: "c2", UnitID: "u2", Tags: []string{"algebra"}}.Record())
	s.MustPut(docstore.LearningCoursesCollection("user-1"), "c1", domain.LearningState{SubscribedCourses: []string{"c2"}}.Record())
	return s
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	store := seedStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewRouter(RouterConfig{
		Log:           log,
		Metrics:       metrics,
		HealthHandler: httpH.NewHealthHandler(),
		RecommendationHandler: httpH.NewRecommendationHandler(log, recommend.New(recommend.UsecasesDeps{
			Store:   store,
			Log:     log,
			Metrics: metrics,
			Shuffle: func(int, func(i, j int)) {},
		})),
		ClassifyHandler: httpH.NewClassifyHandler(log, classify.New(classify.UsecasesDeps{
			Store:  store,
			Log:    log,
			Tagger: staticTagger("Math, Algebra"),
		})),
		SimilarityHandler: httpH.NewSimilarityHandler(log, similarity.New(similarity.UsecasesDeps{Store: store, Log: log})),
	})
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	rec := do(t, newTestRouter(t), nethttp.MethodGet, "/healthcheck", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodPost, "/api/recommendations", map[string]any{"uid": "user-1", "course_id": "c1"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out []recommend.GroupSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := []string{}
	for _, g := range out {
		got = append(got, g.CourseID)
	}
	// c1 is the reference course and c2 is subscribed; both score priority 1.
	if !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Fatalf("courses=%v body=%s", got, rec.Body.String())
	}
	if out[0].UnitName == nil || *out[0].UnitName != "Linear Equations" {
		t.Fatalf("unit name not resolved: %+v", out[0])
	}
}

func TestRecommendationsErrors(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing uid", map[string]any{"course_id": "c1"}, nethttp.StatusBadRequest, "invalid_request"},
		{"missing course", map[string]any{"uid": "user-1"}, nethttp.StatusBadRequest, "invalid_request"},
		{"unknown learner", map[string]any{"uid": "nobody", "course_id": "c1"}, nethttp.StatusNotFound, "learning_state_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, nethttp.MethodPost, "/api/recommendations", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status=%d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error.Code != tc.code {
				t.Fatalf("envelope=%+v err=%v", env, err)
			}
		})
	}
}

func TestClassifyEndpoints(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		path   string
		body   map[string]any
		status int
	}{
		{"/api/classify/question", map[string]any{"question_id": "q1"}, nethttp.StatusOK},
		{"/api/classify/question", map[string]any{"question_id": "missing"}, nethttp.StatusNotFound},
		{"/api/classify/course", map[string]any{"course_name": "Algebra"}, nethttp.StatusOK},
		{"/api/classify/course", map[string]any{}, nethttp.StatusBadRequest},
		{"/api/classify/unit", map[string]any{"unit_name": "Linear Equations"}, nethttp.StatusOK},
	}
	for _, tc := range cases {
		rec := do(t, r, nethttp.MethodPost, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s %v: status=%d, want %d (%s)", tc.path, tc.body, rec.Code, tc.status, rec.Body.String())
		}
		if tc.status != nethttp.StatusOK {
			continue
		}
		var out struct {
			Tags []string `json:"tags"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || !reflect.DeepEqual(out.Tags, []string{"math", "algebra"}) {
			t.Fatalf("%s: tags=%v err=%v", tc.path, out.Tags, err)
		}
	}
}

func TestSimilarCoursesEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodPost, "/api/similar-courses", map[string]any{"course_id": "c1", "unit_id": "u1"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		SimilarCourses []similarity.Match `json:"similar_courses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.SimilarCourses) != 2 || out.SimilarCourses[1].CourseID != "c2" {
		t.Fatalf("similar=%+v", out.SimilarCourses)
	}

	rec = do(t, r, nethttp.MethodPost, "/api/similar-courses", map[string]any{"course_id": "nope"})
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, nethttp.MethodGet, "/healthcheck", nil)
	rec := do(t, r, nethttp.MethodGet, "/metrics", nil)
	if rec.Code != nethttp.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("sb_api_requests_total")) {
		t.Fatalf("status=%d", rec.Code)
	}
}
