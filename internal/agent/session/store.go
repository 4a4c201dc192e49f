package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/medlama/server/internal/agent/dialogue"
	"github.com/medlama/server/internal/agent/model"
	errx "github.com/medlama/server/internal/core/error"
	logx "github.com/medlama/server/pkg/logger"
)

// ExitAcknowledgement is returned when the exit sentinel clears a session.
const ExitAcknowledgement = "Chat session ended. You can start a new conversation."

const sweepInterval = time.Minute

// Store maps session keys to dialogue state, one independent state machine per
// key. Turns for the same key are serialized: a second turn arriving while one
// is in flight is rejected with a conflict, never interleaved. Turns for
// different keys run fully in parallel.
type Store struct {
	controller *dialogue.Controller
	repo       model.ConversationRepository
	ttl        time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	done chan struct{}
	once sync.Once
}

type entry struct {
	state    *model.DialogueState
	busy     bool
	lastSeen time.Time
}

// NewStore creates a session store. repo may be nil; transcript persistence is
// best-effort and never affects turn outcomes. A ttl > 0 enables background
// expiry of idle sessions.
func NewStore(controller *dialogue.Controller, repo model.ConversationRepository, ttl time.Duration) *Store {
	s := &Store{
		controller: controller,
		repo:       repo,
		ttl:        ttl,
		sessions:   make(map[string]*entry),
		done:       make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweepLoop()
	}
	return s
}

// Close stops the expiry sweeper.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// Advance runs one turn for the given session key. The exit sentinel clears
// the session from any state without advancing it; any other input either
// continues the existing session or starts a fresh one.
func (s *Store) Advance(ctx context.Context, sessionKey, userText string) (*model.TurnResult, error) {
	if dialogue.IsExit(userText) {
		s.mu.Lock()
		delete(s.sessions, sessionKey)
		s.mu.Unlock()
		logx.Debug().Str("session_key", sessionKey).Msg("session cleared by exit sentinel")
		return &model.TurnResult{AssistantText: ExitAcknowledgement}, nil
	}

	s.mu.Lock()
	e, ok := s.sessions[sessionKey]
	if ok && e.busy {
		s.mu.Unlock()
		return nil, errx.TurnInFlight(sessionKey)
	}
	if !ok {
		e = &entry{}
		s.sessions[sessionKey] = e
	}
	e.busy = true
	base := e.state
	s.mu.Unlock()

	// The turn runs against a clone outside the lock; the committed state is
	// swapped in only when the whole turn succeeds, so a completion failure
	// leaves the session exactly as it was and the same input can be retried.
	var next *model.DialogueState
	var err error
	if base == nil {
		next, err = s.controller.Start(ctx, userText)
	} else {
		next = base.Clone()
		err = s.controller.Continue(ctx, next, userText)
	}

	s.mu.Lock()
	e.busy = false
	if err != nil {
		if base == nil {
			delete(s.sessions, sessionKey)
		}
		s.mu.Unlock()
		var appErr *errx.AppError
		if !errors.As(err, &appErr) {
			err = errx.WrapCompletion(err)
		}
		return nil, err
	}
	e.state = next
	e.lastSeen = time.Now()
	s.mu.Unlock()

	s.persistTurn(ctx, sessionKey, base, next)

	return &model.TurnResult{
		AssistantText:    latestAssistantText(next),
		AnalysisComplete: next.AnalysisComplete,
	}, nil
}

// Drop removes a session unconditionally, reporting whether it existed. An
// in-flight turn for the key finishes against its clone but its commit lands
// on the orphaned entry and is discarded.
func (s *Store) Drop(sessionKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionKey]
	delete(s.sessions, sessionKey)
	return ok
}

// ActiveSessions returns the number of live sessions, for health reporting.
func (s *Store) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// persistTurn appends the turn's new messages to the transcript repository.
// Failures are logged and swallowed: the core never depends on persistence.
func (s *Store) persistTurn(ctx context.Context, sessionKey string, base, next *model.DialogueState) {
	if s.repo == nil {
		return
	}

	fresh := next.Messages
	if base != nil && len(base.Messages) > 0 && len(next.Messages) >= len(base.Messages) &&
		next.Messages[0] == base.Messages[0] {
		// Ordinary continuation: the clone shares the prefix, persist the tail.
		fresh = next.Messages[len(base.Messages):]
	} else if base != nil {
		// Topic reset replaced the transcript wholesale.
		if err := s.repo.ClearHistory(ctx, sessionKey); err != nil {
			logx.Error().Err(err).Str("session_key", sessionKey).Msg("failed to clear persisted transcript")
		}
	}

	for _, msg := range fresh {
		if err := s.repo.AddMessage(ctx, sessionKey, msg); err != nil {
			logx.Error().Err(err).Str("session_key", sessionKey).Msg("failed to persist transcript message")
			return
		}
	}
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.expire(now)
		}
	}
}

func (s *Store) expire(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.sessions {
		if e.busy {
			continue
		}
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, key)
			logx.Debug().Str("session_key", key).Msg("idle session expired")
		}
	}
}

// latestAssistantText joins the assistant messages produced since the user's
// newest message. A reset turn therefore returns the topic-change
// acknowledgement together with the fresh intake question, and a completing
// turn returns both the readiness statement and the terminal report.
func latestAssistantText(st *model.DialogueState) string {
	msgs := st.Messages
	start := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i] != nil && msgs[i].Role == schema.User {
			start = i + 1
			break
		}
	}

	parts := make([]string, 0, len(msgs)-start)
	for _, msg := range msgs[start:] {
		if msg != nil && msg.Role == schema.Assistant && msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
