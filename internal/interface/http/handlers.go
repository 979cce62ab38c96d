package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/mathhive/math-practice-hub/internal/application/command"
	"github.com/mathhive/math-practice-hub/internal/application/query"
	"github.com/mathhive/math-practice-hub/internal/domain/practice"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Math Practice Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":              "/health",
			"next_question":       "/api/v1/questions/next",
			"attempts":            "/api/v1/attempts",
			"usage_heartbeat":     "/api/v1/usage/heartbeat",
			"usage_check":         "/api/v1/usage/check",
			"weekly_leaderboard":  "/api/v1/leaderboard/weekly",
			"alltime_leaderboard": "/api/v1/leaderboard/alltime",
		},
	}
	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICE FLOW HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordAttemptRequest is the body of POST /api/v1/attempts.
type recordAttemptRequest struct {
	StudentID       string `json:"student_id"`
	QuestionID      string `json:"question_id"`
	TopicID         string `json:"topic_id"`
	SelectedAnswer  string `json:"selected_answer"`
	IsCorrect       bool   `json:"is_correct"`
	HintUsed        bool   `json:"hint_used"`
	TimeTakenMs     int    `json:"time_taken_ms"`
	IsBonusQuestion bool   `json:"is_bonus_question"`
}

// recordAttemptResponse reports the stored attempt and the capped award.
type recordAttemptResponse struct {
	AttemptID string `json:"attempt_id"`
	IsCorrect bool   `json:"is_correct"`
	XPAwarded int    `json:"xp_awarded"`
}

// handleRecordAttempt handles POST /api/v1/attempts
func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req recordAttemptRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RecordAttemptCommand{
		StudentID:       req.StudentID,
		QuestionID:      req.QuestionID,
		TopicID:         req.TopicID,
		SelectedAnswer:  req.SelectedAnswer,
		IsCorrect:       req.IsCorrect,
		HintUsed:        req.HintUsed,
		TimeTakenMs:     req.TimeTakenMs,
		IsBonusQuestion: req.IsBonusQuestion,
	}

	result, err := s.deps.RecordAttempt.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordAttemptResponse{
		AttemptID: result.Attempt.ID,
		IsCorrect: result.Attempt.IsCorrect,
		XPAwarded: result.XPAwarded,
	})
}

// questionView is the wire form of a selected question. The answer key and
// full steps ship with the question: correctness is checked on the client, and
// revealed hints come back as the hint_used flag on the attempt.
type questionView struct {
	ID         string                  `json:"id"`
	TopicID    string                  `json:"topic_id"`
	SubTopic   string                  `json:"sub_topic,omitempty"`
	Difficulty string                  `json:"difficulty"`
	AnswerKey  string                  `json:"answer_key"`
	Steps      []practice.SolutionStep `json:"steps,omitempty"`
}

// handleNextQuestion handles GET /api/v1/questions/next
func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	q := query.NextQuestionQuery{
		StudentID:        getQueryParam(r, "student_id", ""),
		TopicID:          getQueryParam(r, "topic_id", ""),
		ConsecutiveWrong: getQueryParamInt(r, "consecutive_wrong", 0),
		ConsecutiveRight: getQueryParamInt(r, "consecutive_right", 0),
	}
	if exclude := getQueryParam(r, "exclude", ""); exclude != "" {
		q.ExcludeIDs = strings.Split(exclude, ",")
	}

	question, err := s.deps.NextQuestion.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionView{
		ID:         question.ID,
		TopicID:    question.TopicID,
		SubTopic:   question.SubTopic,
		Difficulty: string(question.Difficulty),
		AnswerKey:  question.AnswerKey,
		Steps:      question.Steps,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// USAGE GATE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// heartbeatRequest is the body of POST /api/v1/usage/heartbeat.
type heartbeatRequest struct {
	StudentID string `json:"student_id"`
}

// handleHeartbeat handles POST /api/v1/usage/heartbeat
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	status, err := s.deps.Heartbeat.Handle(r.Context(), command.HeartbeatCommand{StudentID: req.StudentID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleCheckUsage handles GET /api/v1/usage/check
func (s *Server) handleCheckUsage(w http.ResponseWriter, r *http.Request) {
	q := query.CheckUsageQuery{StudentID: getQueryParam(r, "student_id", "")}

	status, err := s.deps.CheckUsage.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleWeeklyLeaderboard handles GET /api/v1/leaderboard/weekly
func (s *Server) handleWeeklyLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{StudentID: getQueryParam(r, "student_id", "")}

	view, err := s.deps.GetLeaderboard.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleAllTimeLeaderboard handles GET /api/v1/leaderboard/alltime
func (s *Server) handleAllTimeLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetAllTimeRankQuery{
		StudentID: getQueryParam(r, "student_id", ""),
		Limit:     getQueryParamInt(r, "limit", 0),
	}

	view, err := s.deps.GetAllTimeRank.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAdminRollover handles POST /api/v1/admin/rollover. The rollover itself
// is idempotent, so re-triggering after a partial failure is safe.
func (s *Server) handleAdminRollover(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rollover == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Rollover is not configured")
		return
	}

	summary, err := s.deps.Rollover.Rollover(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}
