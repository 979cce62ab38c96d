package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathhive/math-practice-hub/internal/application/command"
	"github.com/mathhive/math-practice-hub/internal/application/query"
	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/domain/shared"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeLedger struct {
	known map[string]bool
	xp    int
}

func (f *fakeLedger) Record(ctx context.Context, attempt *practice.Attempt, rawXP int) (int, error) {
	if !f.known[attempt.StudentID] {
		return 0, shared.ErrStudentNotFound
	}
	f.xp += rawXP
	return rawXP, nil
}

func (f *fakeLedger) StatsByTopic(ctx context.Context, studentID, topicID string, recentLimit int) (practice.TopicStats, error) {
	return practice.TopicStats{}, nil
}

type fakeUsage struct {
	known map[string]bool
	used  int
}

func (f *fakeUsage) Heartbeat(ctx context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	if !f.known[studentID] {
		return practice.GateStatus{}, shared.ErrStudentNotFound
	}
	f.used++
	return practice.GateFor(practice.DailyCounters{LastActiveDate: now, DailyUsageMinutes: f.used}, 60, now), nil
}

func (f *fakeUsage) Check(ctx context.Context, studentID string, now time.Time) (practice.GateStatus, error) {
	if !f.known[studentID] {
		return practice.GateStatus{}, shared.ErrStudentNotFound
	}
	return practice.GateFor(practice.DailyCounters{LastActiveDate: now, DailyUsageMinutes: f.used}, 60, now), nil
}

type fakeBank struct {
	questions []practice.Question
}

func (f *fakeBank) GetTopic(ctx context.Context, topicID string) (*practice.Topic, error) {
	return &practice.Topic{ID: topicID, Title: "Fractions"}, nil
}

func (f *fakeBank) ListByTopic(ctx context.Context, topicID string) ([]practice.Question, error) {
	return f.questions, nil
}

func (f *fakeBank) ListByTopicExcluding(ctx context.Context, topicID string, excludeIDs []string) ([]practice.Question, error) {
	return practice.ExcludeQuestions(f.questions, excludeIDs), nil
}

type fakeProgress struct{}

func (fakeProgress) Get(ctx context.Context, studentID, topicID string) (*practice.Progress, error) {
	return nil, shared.ErrProgressNotFound
}

func (fakeProgress) Upsert(ctx context.Context, p *practice.Progress) error { return nil }

type fakeRollover struct {
	calls int
}

func (f *fakeRollover) Rollover(ctx context.Context) (*command.RolloverSummary, error) {
	f.calls++
	return &command.RolloverSummary{LeaguesProcessed: 2, MembersPromoted: 3}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Harness
// ──────────────────────────────────────────────────────────────────────────────

const adminSecret = "let-me-in"

func newTestServer(t *testing.T) (*Server, *fakeRollover) {
	t.Helper()

	known := map[string]bool{"student-1": true}
	quiet := logger.New(logger.Options{Level: logger.LevelError, Output: nopWriter{}})

	hash, err := bcrypt.GenerateFromPassword([]byte(adminSecret), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.AdminSecretHash = string(hash)

	rollover := &fakeRollover{}
	bank := &fakeBank{questions: []practice.Question{
		{ID: "q1", TopicID: "t1", Difficulty: practice.DifficultyEasy, AnswerKey: "42"},
	}}

	deps := Dependencies{
		RecordAttempt: command.NewRecordAttemptHandler(&fakeLedger{known: known}, nil, nil, quiet),
		Heartbeat:     command.NewHeartbeatHandler(&fakeUsage{known: known}, quiet),
		NextQuestion:  query.NewNextQuestionHandler(bank, fakeProgress{}),
		CheckUsage:    query.NewCheckUsageHandler(&fakeUsage{known: known}),
		Rollover:      rollover,
		Logger:        quiet,
	}

	return NewServer(cfg, deps), rollover
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestServer_RecordAttempt(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]interface{}{
		"student_id":      "student-1",
		"question_id":     "q1",
		"topic_id":        "t1",
		"selected_answer": "42",
		"is_correct":      true,
		"time_taken_ms":   4000,
	}
	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/attempts", body, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["attempt_id"])
	assert.Equal(t, true, data["is_correct"])
	assert.Greater(t, data["xp_awarded"], float64(0))
}

func TestServer_RecordAttempt_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]interface{}{"question_id": "q1", "topic_id": "t1"}
	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/attempts", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_input", resp.Error.Code)
}

func TestServer_RecordAttempt_UnknownStudent(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]interface{}{
		"student_id":  "ghost",
		"question_id": "q1",
		"topic_id":    "t1",
	}
	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/attempts", body, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestServer_RecordAttempt_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_NextQuestion(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/questions/next?student_id=student-1&topic_id=t1", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "q1", data["id"])
	assert.Equal(t, "easy", data["difficulty"])
	assert.Equal(t, "42", data["answer_key"])
}

func TestServer_NextQuestion_MissingTopic(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/questions/next?student_id=student-1", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
}

func TestServer_Heartbeat(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]string{"student_id": "student-1"}
	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/usage/heartbeat", body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["allowed"])
	assert.Equal(t, float64(1), data["used"])
	assert.Equal(t, float64(60), data["limit"])
}

func TestServer_CheckUsage(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/usage/check?student_id=student-1", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["allowed"])
	assert.Equal(t, float64(0), data["used"])
}

func TestServer_AdminRollover_RequiresSecret(t *testing.T) {
	srv, rollover := newTestServer(t)

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/admin/rollover", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/admin/rollover", nil,
		map[string]string{"X-Admin-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 0, rollover.calls)
}

func TestServer_AdminRollover_RunsWithSecret(t *testing.T) {
	srv, rollover := newTestServer(t)

	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/admin/rollover", nil,
		map[string]string{"X-Admin-Secret": adminSecret})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, rollover.calls)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["leagues_processed"])
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_RateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.rateLimiter = newRateLimiter(3, time.Minute)
	handler := srv.buildMiddlewareChain(srv.router)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
