package model

import (
	"github.com/cloudwego/eino/schema"
)

// Stage is the coarse phase of a triage dialogue.
type Stage string

const (
	StageConversation Stage = "conversation"
	StageResearch     Stage = "research"
	StageComplete     Stage = "complete"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// SymptomDetails caches the last structured extraction of the user's symptom
// descriptions. LastUpdated records the message count at extraction time so the
// extractor only re-runs when new user messages have arrived since.
type SymptomDetails struct {
	Extracted   string `json:"extracted"`
	LastUpdated int    `json:"last_updated"`
}

// DialogueState is the full per-session state of the triage state machine.
// It is a plain value: handlers mutate a clone and the session store commits
// the clone only when the whole turn succeeds.
type DialogueState struct {
	Messages         []*schema.Message `json:"messages"`
	Stage            Stage             `json:"stage"`
	QuestionCount    int               `json:"question_count"`
	SymptomDetails   SymptomDetails    `json:"symptom_details"`
	ResearchResults  string            `json:"research_results"`
	AnalysisComplete bool              `json:"analysis_complete"`
	Report           string            `json:"report"`
}

// NewDialogueState starts a fresh session seeded with the user's first message.
func NewDialogueState(firstUserMessage string) *DialogueState {
	return &DialogueState{
		Messages: []*schema.Message{schema.UserMessage(firstUserMessage)},
		Stage:    StageConversation,
	}
}

// Clone returns a deep-enough copy for turn isolation. Message structs are
// shared because they are append-only once created; the slice header and all
// scalar fields are copied.
func (st *DialogueState) Clone() *DialogueState {
	cp := *st
	cp.Messages = make([]*schema.Message, len(st.Messages))
	copy(cp.Messages, st.Messages)
	return &cp
}

// Append adds a message to the transcript.
func (st *DialogueState) Append(msg *schema.Message) {
	st.Messages = append(st.Messages, msg)
}

// LastMessage returns the newest message, or nil on an empty transcript.
func (st *DialogueState) LastMessage() *schema.Message {
	if len(st.Messages) == 0 {
		return nil
	}
	return st.Messages[len(st.Messages)-1]
}

// UserMessages returns the contents of all user-role messages in order.
func (st *DialogueState) UserMessages() []string {
	out := make([]string, 0, len(st.Messages))
	for _, msg := range st.Messages {
		if msg != nil && msg.Role == schema.User {
			out = append(out, msg.Content)
		}
	}
	return out
}

// TurnResult is what one inbound user message produces.
type TurnResult struct {
	AssistantText    string `json:"response"`
	AnalysisComplete bool   `json:"analysis_complete"`
}
