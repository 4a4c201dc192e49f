package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialogueState(t *testing.T) {
	st := NewDialogueState("I have a persistent cough")

	assert.Equal(t, StageConversation, st.Stage)
	assert.Zero(t, st.QuestionCount)
	assert.False(t, st.AnalysisComplete)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, schema.User, st.Messages[0].Role)
	assert.Equal(t, "I have a persistent cough", st.Messages[0].Content)
}

func TestClone_IsolatesTurnMutations(t *testing.T) {
	base := NewDialogueState("headache for two days")
	base.Append(schema.AssistantMessage("When did it start?", nil))

	cp := base.Clone()
	cp.Append(schema.UserMessage("this morning"))
	cp.Stage = StageResearch
	cp.QuestionCount = 3
	cp.SymptomDetails = SymptomDetails{Extracted: "headache, 2 days", LastUpdated: 3}
	cp.ResearchResults = "findings"

	assert.Len(t, base.Messages, 2, "clone append must not leak into the base")
	assert.Equal(t, StageConversation, base.Stage)
	assert.Zero(t, base.QuestionCount)
	assert.Empty(t, base.SymptomDetails.Extracted)
	assert.Empty(t, base.ResearchResults)

	// The shared prefix stays shared: commit diffing relies on pointer equality.
	assert.Same(t, base.Messages[0], cp.Messages[0])
	assert.Same(t, base.Messages[1], cp.Messages[1])
}

func TestUserMessages(t *testing.T) {
	st := NewDialogueState("fever")
	st.Append(schema.AssistantMessage("How high is it?", nil))
	st.Append(schema.UserMessage("39 degrees"))

	assert.Equal(t, []string{"fever", "39 degrees"}, st.UserMessages())
}

func TestLastMessage(t *testing.T) {
	st := &DialogueState{}
	assert.Nil(t, st.LastMessage())

	st.Append(schema.UserMessage("hi"))
	st.Append(schema.AssistantMessage("hello", nil))
	require.NotNil(t, st.LastMessage())
	assert.Equal(t, schema.Assistant, st.LastMessage().Role)
}
