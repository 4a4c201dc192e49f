package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlama/server/internal/agent/dialogue"
	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/repo"
	errx "github.com/medlama/server/internal/core/error"
)

// queueLLM hands out canned completions; an optional gate blocks inside a
// completion call so tests can hold a turn in flight.
type queueLLM struct {
	mu      sync.Mutex
	replies []string
	gate    chan struct{}
	started chan struct{}
	fail    bool
}

func (q *queueLLM) Complete(ctx context.Context, _ string) (string, error) {
	if q.started != nil {
		q.started <- struct{}{}
	}
	if q.gate != nil {
		select {
		case <-q.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return "", errors.New("backend down")
	}
	if len(q.replies) == 0 {
		return "", fmt.Errorf("unexpected completion call")
	}
	reply := q.replies[0]
	q.replies = q.replies[1:]
	return reply, nil
}

type noopResearch struct{}

func (noopResearch) Research(context.Context, string) string { return "research findings" }

func newStoreWithLLM(t *testing.T, llm *queueLLM, transcripts model.ConversationRepository) *Store {
	t.Helper()
	c := dialogue.NewController(llm, noopResearch{}, model.DialogueConfig{})
	s := NewStore(c, transcripts, 0)
	t.Cleanup(s.Close)
	return s
}

func TestAdvance_StartsAndContinuesSession(t *testing.T) {
	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
	}}
	s := newStoreWithLLM(t, llm, nil)

	res, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.NoError(t, err)
	assert.False(t, res.AnalysisComplete)
	assert.Contains(t, res.AssistantText, "How long has your throat been sore?")
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestAdvance_ExitClearsSessionFromAnyState(t *testing.T) {
	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
	}}
	s := newStoreWithLLM(t, llm, nil)

	_, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.NoError(t, err)
	require.Equal(t, 1, s.ActiveSessions())

	res, err := s.Advance(context.Background(), "s1", "  EXIT ")
	require.NoError(t, err)
	assert.Equal(t, ExitAcknowledgement, res.AssistantText)
	assert.Equal(t, 0, s.ActiveSessions())
}

func TestAdvance_ExitOnUnknownSessionStillAcknowledges(t *testing.T) {
	s := newStoreWithLLM(t, &queueLLM{}, nil)

	res, err := s.Advance(context.Background(), "ghost", "exit")
	require.NoError(t, err)
	assert.Equal(t, ExitAcknowledgement, res.AssistantText)
}

func TestAdvance_ConcurrentTurnSameKeyConflicts(t *testing.T) {
	llm := &queueLLM{
		replies: []string{"symptoms: fever", "How high is the fever?"},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	s := newStoreWithLLM(t, llm, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Advance(context.Background(), "s1", "I have a fever")
		done <- err
	}()

	// Wait until the first turn is inside a completion call.
	<-llm.started

	_, err := s.Advance(context.Background(), "s1", "also chills")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, errx.StatusOf(err))

	close(llm.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestAdvance_FailedFirstTurnLeavesNoSession(t *testing.T) {
	llm := &queueLLM{fail: true}
	s := newStoreWithLLM(t, llm, nil)

	_, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
	assert.Equal(t, 0, s.ActiveSessions(), "a failed opening turn must not leave a session behind")
}

func TestAdvance_FailedTurnKeepsPriorStateRetryable(t *testing.T) {
	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
	}}
	s := newStoreWithLLM(t, llm, nil)

	_, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.NoError(t, err)

	llm.mu.Lock()
	llm.fail = true
	llm.mu.Unlock()
	_, err = s.Advance(context.Background(), "s1", "for two days")
	require.Error(t, err)
	require.Equal(t, 1, s.ActiveSessions(), "the session survives a failed turn")

	// The same input succeeds after the backend recovers.
	llm.mu.Lock()
	llm.fail = false
	llm.replies = []string{
		"symptoms: sore throat, two days",
		"Do you also have a fever?",
	}
	llm.mu.Unlock()

	res, err := s.Advance(context.Background(), "s1", "for two days")
	require.NoError(t, err)
	assert.Contains(t, res.AssistantText, "Do you also have a fever?")
}

func TestAdvance_SessionsAreIsolatedPerKey(t *testing.T) {
	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
		"symptoms: back pain",
		"Where exactly is the back pain?",
	}}
	s := newStoreWithLLM(t, llm, nil)

	resA, err := s.Advance(context.Background(), "a", "my throat hurts")
	require.NoError(t, err)
	resB, err := s.Advance(context.Background(), "b", "my back hurts")
	require.NoError(t, err)

	assert.Contains(t, resA.AssistantText, "throat")
	assert.Contains(t, resB.AssistantText, "back pain")
	assert.Equal(t, 2, s.ActiveSessions())
}

func TestAdvance_PersistsTranscript(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	transcripts := repo.NewRedisConversationRepository(rdb, time.Hour)

	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
	}}
	s := newStoreWithLLM(t, llm, transcripts)

	_, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.NoError(t, err)

	history, err := transcripts.LoadHistory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "my throat hurts", history.Messages[0].Content)
	assert.Contains(t, history.Messages[1].Content, "How long")
}

func TestExpire_RemovesIdleSessionsOnly(t *testing.T) {
	llm := &queueLLM{replies: []string{
		"symptoms: sore throat",
		"How long has your throat been sore?",
	}}
	c := dialogue.NewController(llm, noopResearch{}, model.DialogueConfig{})
	s := NewStore(c, nil, 10*time.Millisecond)
	defer s.Close()

	_, err := s.Advance(context.Background(), "s1", "my throat hurts")
	require.NoError(t, err)
	require.Equal(t, 1, s.ActiveSessions())

	s.expire(time.Now().Add(time.Minute))
	assert.Equal(t, 0, s.ActiveSessions())
}
