package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/katalyst/internal/catalog"
	"github.com/verte-zerg/katalyst/internal/progress"
)

const testKey = "secret123"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	courses := catalog.NewService(catalog.NewMemoryRepository(), nil)
	if _, err := courses.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	prog := progress.NewService(progress.NewMemoryRepository(), courses, nil)
	return NewRouter(RouterConfig{
		Handler: NewHandler(nil, courses, prog),
		APIKey:  testKey,
	})
}

func do(t *testing.T, r http.Handler, method, path, body string, key string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestAPIKeyRequired(t *testing.T) {
	r := newTestRouter(t)
	for _, key := range []string{"", "wrong"} {
		rec := do(t, r, http.MethodGet, "/courses/course_101", "", key)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for key %q, got %d", key, rec.Code)
		}
		if got := decodeError(t, rec).Message; got != "Unauthorized: Invalid or missing API Key" {
			t.Fatalf("unexpected message: %q", got)
		}
	}
	if rec := do(t, r, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected health check without key, got %d", rec.Code)
	}
}

func TestGetCourse(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/courses/course_101", "", testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"id":1`) || !strings.Contains(rec.Body.String(), `"correctAnswer":"<h1>"`) {
		t.Fatalf("unexpected course body: %s", rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/courses/missing", "", testKey)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Message != "Course not found" || got.Code != "not_found" {
		t.Fatalf("unexpected error: %+v", got)
	}
}

func TestListCourses(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/courses", "", testKey)
	var resp ListCoursesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Courses) != 2 || resp.Courses[1].ID != "course_102" || resp.Courses[0].QuestionCount != 5 {
		t.Fatalf("unexpected listing: %+v", resp)
	}
}

func TestCreateCourse(t *testing.T) {
	r := newTestRouter(t)
	body := `{"id":"go_1","title":"Go","lessons":[{"id":"l1","title":"Basics","questions":[{"id":1,"text":"Keyword?","options":["func","fn"],"correctAnswer":"func"}]}]}`
	rec := do(t, r, http.MethodPost, "/courses", body, testKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodPost, "/courses", body, testKey)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Message != "Course ID already exists" {
		t.Fatalf("expected duplicate rejection, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodGet, "/courses/go_1", "", testKey); rec.Code != http.StatusOK {
		t.Fatalf("expected created course to be readable, got %d", rec.Code)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		body string
		want string
	}{
		{`{"title":"T","lessons":[]}`, "Valid course ID is required"},
		{`{"id":7,"title":"T","lessons":[]}`, "Valid course ID is required"},
		{`{"id":"x","lessons":[]}`, "Valid course title is required"},
		{`{"id":"x","title":"T","lessons":{}}`, "Lessons must be an array"},
		{`{"id":"x","title":"T"}`, "Lessons must be an array"},
		{`{"id":"x","title":"T","lessons":[{"title":"L","questions":[]}]}`, "Invalid structure in lesson unknown"},
		{`{"id":"x","title":"T","lessons":[{"id":"l1","title":"L","questions":"no"}]}`, "Invalid structure in lesson l1"},
		{`{"id":"x","title":"T","lessons":[{"id":"l1","title":"L","questions":[{"id":1,"options":["a"],"correctAnswer":"a"}]}]}`, "Invalid question structure in lesson l1"},
		{`{"id":"x","title":"T","lessons":[{"id":"l1","title":"L","questions":[{"id":0,"text":"?","options":["a"],"correctAnswer":"a"}]}]}`, "Invalid question structure in lesson l1"},
		{`{"id":"x","title":"T","lessons":[{"id":"l1","title":"L","questions":[{"id":1,"text":"?","options":["a",2],"correctAnswer":"a"}]}]}`, "Invalid question structure in lesson l1"},
		{`[1,2]`, "Request body must be a JSON object"},
	}
	for _, tc := range cases {
		rec := do(t, r, http.MethodPost, "/courses", tc.body, testKey)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", tc.body, rec.Code)
		}
		if got := decodeError(t, rec).Message; got != tc.want {
			t.Fatalf("unexpected message for %s: got=%q want=%q", tc.body, got, tc.want)
		}
	}
}

func TestProgressFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/courses/course_101/progress/u1", "", testKey)
	var empty ProgressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Message != msgNoProgress || empty.CompletedLessons == nil || len(empty.CompletedLessons) != 0 || len(empty.QuizScores) != 0 {
		t.Fatalf("unexpected empty progress: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"completedLessons":[]`) || !strings.Contains(rec.Body.String(), `"quizScores":{}`) {
		t.Fatalf("expected empty collections in body: %s", rec.Body.String())
	}

	do(t, r, http.MethodPost, "/courses/course_101/progress", `{"userId":"u1","lessonId":"lesson_1","score":3,"completed":true}`, testKey)
	rec = do(t, r, http.MethodPost, "/courses/course_101/progress", `{"userId":"u1","lessonId":"lesson_1","score":5,"completed":true}`, testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var updated ProgressUpdatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Message != msgProgressUpdated || updated.CurrentProgress.QuizScores["lesson_1"] != 5 || len(updated.CurrentProgress.CompletedLessons) != 1 {
		t.Fatalf("unexpected update response: %+v", updated)
	}

	rec = do(t, r, http.MethodGet, "/courses/course_101/progress/u1", "", testKey)
	if strings.Contains(rec.Body.String(), "message") {
		t.Fatalf("expected no message for existing record: %s", rec.Body.String())
	}
}

func TestRecordProgressErrors(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		path   string
		body   string
		status int
		want   string
	}{
		{"/courses/course_101/progress", `{"lessonId":"lesson_1"}`, http.StatusBadRequest, "userId is required"},
		{"/courses/course_101/progress", `{"userId":"u1"}`, http.StatusBadRequest, "lessonId is required"},
		{"/courses/nope/progress", `{"userId":"u1","lessonId":"l"}`, http.StatusNotFound, "Course not found"},
	}
	for _, tc := range cases {
		rec := do(t, r, http.MethodPost, tc.path, tc.body, testKey)
		if rec.Code != tc.status {
			t.Fatalf("unexpected status for %s: got=%d want=%d", tc.body, rec.Code, tc.status)
		}
		if got := decodeError(t, rec).Message; got != tc.want {
			t.Fatalf("unexpected message: got=%q want=%q", got, tc.want)
		}
	}
	rec := do(t, r, http.MethodPost, "/courses/course_101/progress", `{not json`, testKey)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCORSAllowsClientOrigins(t *testing.T) {
	r := newTestRouter(t)
	origins := []string{"http://localhost:3000", "https://katalyst-preview.vercel.app"}
	for _, origin := range origins {
		req := httptest.NewRequest(http.MethodOptions, "/courses/course_101", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, origin)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/courses/course_101", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected foreign origin to be refused, got %q", got)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	rec = do(t, r, http.MethodGet, "/healthz", "", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := catalog.NewService(catalog.NewMemoryRepository(), nil)
	srv := NewServer(RouterConfig{
		Handler: NewHandler(nil, courses, progress.NewService(progress.NewMemoryRepository(), courses, nil)),
		APIKey:  testKey,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
