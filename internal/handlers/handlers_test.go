package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const quizDoc = `{
	"id": "quiz-1",
	"title": "Shapes",
	"questions": [
		{"id": "q1", "prompt": "Pick b", "points": 1, "questionType": "multiple_choice",
		 "options": [{"id": "a", "text": "A"}, {"id": "b", "text": "B"}], "correctAnswerId": "b"}
	]
}`

type stubParser struct{}

func (stubParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if token != "good" {
		return nil, errors.New("token signature is invalid")
	}
	return &casdoorsdk.Claims{User: casdoorsdk.User{Owner: "acme", Name: "alice", DisplayName: "Alice", Id: "u-1"}}, nil
}

type fixture struct {
	quizzes *MockQuizService
	player  *MockPlayerService
	export  *MockExportService
	router  *gin.Engine
}

func newFixture(t *testing.T, opts RouteOptions) *fixture {
	t.Helper()
	f := &fixture{
		quizzes: new(MockQuizService),
		player:  new(MockPlayerService),
		export:  new(MockExportService),
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hm := NewHandlerManager(services.NewServiceManager(f.quizzes, f.player, f.export), validator.New(), logger, opts)

	f.router = gin.New()
	f.router.Use(utils.ContextLogger(logger))
	hm.SetupRoutes(f.router)

	t.Cleanup(func() {
		f.quizzes.AssertExpectations(t)
		f.player.AssertExpectations(t)
		f.export.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz-engine")
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

// ===== QUIZ ROUTES =====

func TestCreateQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
		return q.ID == "quiz-1" && len(q.Questions) == 1
	}), "").Return(&services.QuizResponse{ID: "quiz-1", Title: "Shapes", Version: 1}, nil)

	w := f.do(http.MethodPost, "/api/v1/quizzes", quizDoc)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[services.QuizResponse](t, w)
	assert.Equal(t, "quiz-1", resp.ID)
	assert.Equal(t, 1, resp.Version)
}

func TestCreateQuizMalformedBody(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	w := f.do(http.MethodPost, "/api/v1/quizzes", `{"id": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateQuizValidationFailed(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Create", mock.Anything, mock.Anything, "").
		Return(nil, services.ValidationErrors{*services.NewValidationError("title", "is required", "")})

	w := f.do(http.MethodPost, "/api/v1/quizzes", quizDoc)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[struct {
		Message string                    `json:"message"`
		Details services.ValidationErrors `json:"details"`
	}](t, w)
	assert.Equal(t, "Validation failed", resp.Message)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "title", resp.Details[0].Field)
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrQuizNotFound, http.StatusNotFound},
		{services.ErrQuizExists, http.StatusConflict},
		{services.ErrQuizVersionStale, http.StatusConflict},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrImportUnsupported, http.StatusBadRequest},
		{errors.New("database is down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture(t, RouteOptions{})
			f.quizzes.On("Get", mock.Anything, "quiz-1").Return(nil, tt.err)

			w := f.do(http.MethodGet, "/api/v1/quizzes/quiz-1", "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUpdateQuizRequiresVersion(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	w := f.do(http.MethodPut, "/api/v1/quizzes/quiz-1", `{"quiz": `+quizDoc+`}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"version"`)
}

func TestUpdateQuizStale(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Update", mock.Anything, "quiz-1", mock.MatchedBy(func(r *services.UpdateQuizRequest) bool {
		return r.Version == 3
	}), "").Return(nil, services.ErrQuizVersionStale)

	w := f.do(http.MethodPut, "/api/v1/quizzes/quiz-1", `{"version": 3, "quiz": `+quizDoc+`}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Delete", mock.Anything, "quiz-1", "").Return(nil)

	w := f.do(http.MethodDelete, "/api/v1/quizzes/quiz-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListQuizzesPagination(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("List", mock.Anything, repositories.QuizFilters{
		Search: "shape", Limit: 10, Offset: 20, SortBy: "title", SortOrder: "asc",
	}).Return(&services.QuizListResponse{Total: 21, Page: 2, Size: 10}, nil)

	w := f.do(http.MethodGet, "/api/v1/quizzes?search=shape&page=3&size=10&sort_by=title&sort_order=asc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 21, decode[services.QuizListResponse](t, w).Total)
}

func TestValidateQuizReportsErrors(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Validate", mock.Anything).
		Return(services.ValidationErrors{*services.NewValidationError("questions[0].points", "must not be negative", -1)}).Once()

	w := f.do(http.MethodPost, "/api/v1/quizzes/validate", quizDoc)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[ValidationReport](t, w)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "questions[0].points", report.Errors[0].Field)

	f.quizzes.On("Validate", mock.Anything).Return(nil).Once()
	w = f.do(http.MethodPost, "/api/v1/quizzes/validate", quizDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ValidationReport](t, w).Valid)
}

func TestImportQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Import", mock.Anything, mock.Anything, "questions.json",
		&services.ImportRequest{ID: "quiz-9", Title: "Imported"}, "").
		Return(&services.ImportResult{TotalRows: 1, SuccessCount: 1, Quiz: &services.QuizResponse{ID: "quiz-9"}}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("id", "quiz-9"))
	require.NoError(t, mw.WriteField("title", "Imported"))
	part, err := mw.CreateFormFile("file", "questions.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`[]`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "quiz-9", decode[services.ImportResult](t, w).Quiz.ID)
}

func TestImportQuizWithoutFile(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("id", "quiz-9"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadScormPackage(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	quiz := &models.Quiz{ID: "quiz/1", Title: "Shapes"}
	f.quizzes.On("Load", mock.Anything, "quiz-1").Return(quiz, nil)
	f.export.On("ScormPackage", mock.Anything, quiz).Return([]byte("PK"), nil)

	w := f.do(http.MethodGet, "/api/v1/quizzes/quiz-1/scorm-package", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="quiz-1-scorm.zip"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", w.Body.String())
}

func TestListResultsFilters(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.quizzes.On("Results", mock.Anything, "quiz-1", mock.MatchedBy(func(rf repositories.ResultFilters) bool {
		return rf.Passed != nil && *rf.Passed && rf.TimedOut == nil &&
			rf.DateFrom != nil && rf.DateFrom.Day() == 2 && rf.StudentName == "Ada"
	})).Return(&services.ResultListResponse{Total: 0}, nil)

	w := f.do(http.MethodGet, "/api/v1/quizzes/quiz-1/results?passed=true&from=2025-01-02&student=Ada", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// ===== AUTH =====

func TestAuthoringRoutesRequireToken(t *testing.T) {
	f := newFixture(t, RouteOptions{Auth: stubParser{}})

	w := f.do(http.MethodGet, "/api/v1/quizzes/quiz-1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/quizzes/quiz-1", "", "Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorIDFromToken(t *testing.T) {
	f := newFixture(t, RouteOptions{Auth: stubParser{}})
	f.quizzes.On("Create", mock.Anything, mock.Anything, "u-1").Return(&services.QuizResponse{ID: "quiz-1"}, nil)

	w := f.do(http.MethodPost, "/api/v1/quizzes", quizDoc, "Authorization", "Bearer good")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

// ===== SESSION ROUTES =====

func TestStartSessionNamesStudentFromToken(t *testing.T) {
	f := newFixture(t, RouteOptions{Auth: stubParser{}})
	f.player.On("Start", mock.Anything, mock.MatchedBy(func(r *services.StartSessionRequest) bool {
		return r.QuizID == "quiz-1" && r.StudentName == "Alice"
	})).Return(&services.SessionState{SessionID: "s-1", QuizID: "quiz-1", StudentName: "Alice"}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions", `{"quiz_id": "quiz-1"}`, "Authorization", "Bearer good")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s-1", decode[services.SessionState](t, w).SessionID)
}

func TestStartSessionAnonymous(t *testing.T) {
	f := newFixture(t, RouteOptions{Auth: stubParser{}})
	f.player.On("Start", mock.Anything, mock.MatchedBy(func(r *services.StartSessionRequest) bool {
		return r.StudentName == "Bob"
	})).Return(&services.SessionState{SessionID: "s-2"}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions", `{"quiz_id": "quiz-1", "student_name": "Bob"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestStartSessionNeedsQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	w := f.do(http.MethodPost, "/api/v1/sessions", `{"student_name": "Bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnswer(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("SubmitAnswer", mock.Anything, "s-1", "q1", mock.MatchedBy(func(a *models.Answer) bool {
		return a.Equal(models.ListAnswer("a", "c"))
	})).Return(&services.SubmitResponse{QuestionID: "q1", Accepted: true}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/answers", `{"question_id": "q1", "answer": ["a", "c"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.SubmitResponse](t, w).Accepted)
}

func TestSubmitAnswerToFinishedSession(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("SubmitAnswer", mock.Anything, "s-1", "q1", mock.Anything).Return(nil, services.ErrSessionFinished)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/answers", `{"question_id": "q1", "answer": "b"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitAnswerMissingAnswer(t *testing.T) {
	f := newFixture(t, RouteOptions{})

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/answers", `{"question_id": "q1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavigation(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("Next", mock.Anything, "s-1").Return(&services.QuestionView{Number: 2, Total: 3}, nil)
	f.player.On("Previous", mock.Anything, "s-1").Return(&services.QuestionView{Number: 1, Total: 3}, nil)
	f.player.On("GoTo", mock.Anything, "s-1", 0).Return(&services.QuestionView{Number: 1, Total: 3}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[services.QuestionView](t, w).Number)

	w = f.do(http.MethodPost, "/api/v1/sessions/s-1/previous", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[services.QuestionView](t, w).Number)

	w = f.do(http.MethodPost, "/api/v1/sessions/s-1/goto", `{"index": 0}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/v1/sessions/s-1/goto", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveHotspotAtOrigin(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("ResolveHotspot", mock.Anything, "s-1", "q2", 0.0, 0.0).Return("square", true, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/hotspot", `{"question_id": "q2", "x": 0, "y": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HotspotResponse](t, w)
	assert.True(t, resp.Hit)
	assert.Equal(t, "square", resp.HotspotID)
}

func TestGetResultBeforeFinish(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("Result", mock.Anything, "s-1").Return(nil, services.ErrSessionNotDone)

	w := f.do(http.MethodGet, "/api/v1/sessions/s-1/result", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFinishSession(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("Finish", mock.Anything, "s-1").Return(&models.QuizResult{QuizID: "quiz-1", Score: 1, MaxScore: 2}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quiz-1"`)
}

func TestExportResultFallsBackToStoredQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	result := &models.QuizResult{QuizID: "quiz-1"}
	quiz := &models.Quiz{ID: "quiz-1"}
	f.player.On("Result", mock.Anything, "s-1").Return(result, nil)
	f.player.On("Quiz", mock.Anything, "s-1").Return(nil, services.ErrSessionNotFound)
	f.quizzes.On("Load", mock.Anything, "quiz-1").Return(quiz, nil)
	f.export.On("ResultWorkbook", mock.Anything, result, quiz).Return([]byte("xlsx"), nil)

	w := f.do(http.MethodGet, "/api/v1/sessions/s-1/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="s-1-result.xlsx"`, w.Header().Get("Content-Disposition"))
}

func TestExportResultForDeletedQuiz(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	result := &models.QuizResult{QuizID: "quiz-1"}
	f.player.On("Result", mock.Anything, "s-1").Return(result, nil)
	f.player.On("Quiz", mock.Anything, "s-1").Return(nil, services.ErrSessionNotFound)
	f.quizzes.On("Load", mock.Anything, "quiz-1").Return(nil, services.ErrQuizNotFound)
	f.export.On("ResultWorkbook", mock.Anything, result, (*models.Quiz)(nil)).Return([]byte("xlsx"), nil)

	w := f.do(http.MethodGet, "/api/v1/sessions/s-1/export", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScormDataWithoutPreview(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("ScormData", mock.Anything, "s-1").Return(nil, services.ErrNotFound)

	w := f.do(http.MethodGet, "/api/v1/sessions/s-1/scorm", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUnknownSession(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("Destroy", mock.Anything, "nope").Return(services.ErrSessionNotFound)

	w := f.do(http.MethodDelete, "/api/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// streamRecorder adds the CloseNotify gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamEvents(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	events := make(chan services.SessionEvent, 3)
	events <- services.SessionEvent{Type: services.SessionEventAnswerSubmit, Data: map[string]string{"question_id": "q1"}}
	events <- services.SessionEvent{Type: services.SessionEventFinish}
	events <- services.SessionEvent{Type: services.SessionEventTimeTick}
	cancelled := false

	f.player.On("Subscribe", mock.Anything, "s-1").Return(events, func() { cancelled = true }, nil)
	f.player.On("Get", mock.Anything, "s-1").Return(&services.SessionState{SessionID: "s-1"}, nil)

	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s-1/events", nil))

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event:state")
	assert.Contains(t, body, "event:answer_submit")
	assert.Contains(t, body, "event:quiz_finish")
	assert.NotContains(t, body, "event:time_tick")
	assert.True(t, cancelled)
}

func TestStreamEventsFinishedSession(t *testing.T) {
	f := newFixture(t, RouteOptions{})
	f.player.On("Subscribe", mock.Anything, "s-1").Return(make(chan services.SessionEvent), func() {}, nil)
	f.player.On("Get", mock.Anything, "s-1").Return(&services.SessionState{SessionID: "s-1", Finished: true}, nil)

	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s-1/events", nil))

	assert.Contains(t, w.Body.String(), "event:state")
}

func TestRateLimitedSessions(t *testing.T) {
	f := newFixture(t, RouteOptions{RateLimit: 0.001, RateBurst: 1})
	f.player.On("Get", mock.Anything, "s-1").Return(&services.SessionState{SessionID: "s-1"}, nil).Once()

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/sessions/s-1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/api/v1/sessions/s-1", "").Code)
}
