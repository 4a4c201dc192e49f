package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/session"
	"github.com/medlama/server/internal/analytics"
	errx "github.com/medlama/server/internal/core/error"
	"github.com/medlama/server/internal/education"
	logx "github.com/medlama/server/pkg/logger"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	store   *session.Store
	repo    model.ConversationRepository
	quiz    *education.QuizService
	tracker *analytics.Tracker
	redis   redis.Cmdable
}

func NewHandler(store *session.Store, repo model.ConversationRepository, quiz *education.QuizService, tracker *analytics.Tracker, rdb redis.Cmdable) *Handler {
	return &Handler{store: store, repo: repo, quiz: quiz, tracker: tracker, redis: rdb}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response         string `json:"response"`
	AnalysisComplete bool   `json:"analysis_complete"`
	SessionID        string `json:"session_id"`
}

type quizRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	msg := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logx.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeChatRequest(r *http.Request) (*chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errx.New(err, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errx.New(nil, http.StatusBadRequest, "message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return &req, nil
}

// PostMessage runs one dialogue turn and returns the assistant reply.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.store.Advance(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.AnalysisComplete && h.tracker != nil {
		h.tracker.Track(r.Context(), education.DetectTopic(req.Message).String(), "")
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:         result.AssistantText,
		AnalysisComplete: result.AnalysisComplete,
		SessionID:        req.SessionID,
	})
}

// StreamMessage runs the same turn as PostMessage and relays the reply as
// server-sent text chunks.
func (h *Handler) StreamMessage(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errx.New(nil, http.StatusInternalServerError, "streaming unsupported"))
		return
	}

	result, err := h.store.Advance(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.AnalysisComplete && h.tracker != nil {
		h.tracker.Track(r.Context(), education.DetectTopic(req.Message).String(), "")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, line := range strings.Split(result.AssistantText, "\n") {
		payload, _ := json.Marshal(map[string]string{"text": line + "\n", "session_id": req.SessionID})
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
	done, _ := json.Marshal(map[string]any{"done": true, "analysis_complete": result.AnalysisComplete})
	w.Write([]byte("data: " + string(done) + "\n\n"))
	flusher.Flush()
}

// DeleteSession ends a session the same way the exit sentinel does.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existed := h.store.Drop(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"removed":    existed,
		"message":    session.ExitAcknowledgement,
	})
}

// PostQuiz generates a topic quiz through the completion model.
func (h *Handler) PostQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = 5
	}
	out, err := h.quiz.Generate(r.Context(), req.Topic, req.NumQuestions, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"topic": req.Topic, "quiz": out})
}

// GetConversation reads a persisted transcript back.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := h.repo.LoadHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	msgs := make([]wireMessage, 0, len(history.Messages))
	for _, m := range history.Messages {
		if m == nil {
			continue
		}
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": history.ConversationID,
		"messages":        msgs,
	})
}

// DeleteConversation purges a persisted transcript.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.ClearHistory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"conversation_id": id, "status": "cleared"})
}

// GetSymptomAnalytics serves the per-topic consultation counters.
func (h *Handler) GetSymptomAnalytics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetInsights serves a short textual analytics summary.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.tracker.Insights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insights": insights})
}

// GetTips serves the canned educational tips, optionally filtered by topic.
func (h *Handler) GetTips(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("topic")
	if raw == "" {
		all := make(map[string][]string, len(education.Topics()))
		for _, t := range education.Topics() {
			all[t.String()] = education.TipsForTopic(t)
		}
		writeJSON(w, http.StatusOK, map[string]any{"tips": all})
		return
	}
	topic := education.DetectTopic(raw)
	writeJSON(w, http.StatusOK, map[string]any{
		"topic": topic.String(),
		"tips":  education.TipsForTopic(topic),
	})
}

// Healthz reports service liveness and Redis reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	redisState := "ok"
	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			redisState = "unreachable"
			status = http.StatusServiceUnavailable
		}
	} else {
		redisState = "disabled"
	}
	writeJSON(w, status, map[string]any{
		"status":          "ok",
		"redis":           redisState,
		"active_sessions": h.store.ActiveSessions(),
	})
}
