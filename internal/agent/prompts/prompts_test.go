package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIntake(t *testing.T) {
	out, err := RenderIntake(context.Background(), "I have chest pain")
	require.NoError(t, err)

	assert.Contains(t, out, "User input: I have chest pain")
	assert.Contains(t, out, "acknowledge what they've shared")
	assert.Contains(t, out, "medical assistant", "the system prompt is embedded")
}

func TestRenderFollowUp(t *testing.T) {
	transcript := "User: chest pain\n\nAssistant: When did it start?\n\n"
	out, err := RenderFollowUp(context.Background(), transcript, 4)
	require.NoError(t, err)

	assert.Contains(t, out, transcript)
	assert.Contains(t, out, "asked 4+ questions")
	assert.Contains(t, out, "I have enough information to analyze your symptoms now.")
}

func TestRenderExtraction(t *testing.T) {
	out, err := RenderExtraction(context.Background(), "chest pain since yesterday")
	require.NoError(t, err)

	assert.Contains(t, out, "chest pain since yesterday")
	assert.Contains(t, out, "Primary symptoms")
}

func TestRenderResearchQuery(t *testing.T) {
	out, err := RenderResearchQuery(context.Background(), []string{"chest pain", "worse on breathing"}, "extracted details")
	require.NoError(t, err)

	assert.Contains(t, out, "chest pain\nworse on breathing")
	assert.Contains(t, out, "extracted details")
}

func TestRenderResearchQuery_EmptyExtraction(t *testing.T) {
	out, err := RenderResearchQuery(context.Background(), []string{"chest pain"}, "  ")
	require.NoError(t, err)
	assert.Contains(t, out, "No structured symptom data available")
}

func TestRenderAnalysis(t *testing.T) {
	out, err := RenderAnalysis(context.Background(), []string{"chest pain"}, "extracted", "research findings")
	require.NoError(t, err)

	assert.Contains(t, out, "chest pain")
	assert.Contains(t, out, "extracted")
	assert.Contains(t, out, "research findings")
	assert.Contains(t, out, "LOW, MEDIUM, or HIGH")
}

func TestRenderAnalysis_EmptyInputsGetPlaceholders(t *testing.T) {
	out, err := RenderAnalysis(context.Background(), []string{"chest pain"}, "", "")
	require.NoError(t, err)

	assert.Contains(t, out, "No structured symptom data available")
	assert.Contains(t, out, "No research data available")
}

func TestRenderQuiz(t *testing.T) {
	out, err := RenderQuiz(context.Background(), "cardiology", 5, "hard")
	require.NoError(t, err)

	assert.Contains(t, out, "hard multiple-choice quiz with 5 questions")
	assert.Contains(t, out, "cardiology")
}

func TestFormatTranscript(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("chest pain"),
		schema.AssistantMessage("When did it start?", nil),
		nil,
		schema.SystemMessage("ignored"),
	}
	out := FormatTranscript(msgs)

	assert.Contains(t, out, "User: chest pain\n\n")
	assert.Contains(t, out, "Assistant: When did it start?\n\n")
	assert.NotContains(t, out, "ignored")
}
