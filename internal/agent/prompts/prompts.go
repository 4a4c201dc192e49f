package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/system_prompt.txt
var systemPrompt string

//go:embed template/intake_prompt.txt
var intakePrompt string

//go:embed template/followup_prompt.txt
var followupPrompt string

//go:embed template/extract_prompt.txt
var extractPrompt string

//go:embed template/research_prompt.txt
var researchPrompt string

//go:embed template/analysis_prompt.txt
var analysisPrompt string

//go:embed template/quiz_prompt.txt
var quizPrompt string

// ResearchSystemPrompt steers the research backend. Kept here so the research
// client and its tests share one source of truth.
const ResearchSystemPrompt = "You are a medical research assistant. Provide precise and well-sourced responses."

// render formats one embedded Go template via the Eino prompt component so
// prompt callbacks fire the same way they do for chat-model nodes.
func render(ctx context.Context, tpl string, vars map[string]any) (string, error) {
	t := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(tpl),
	)
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderIntake builds the first-turn prompt: empathic acknowledgement plus
// exactly one clarifying question.
func RenderIntake(ctx context.Context, userInput string) (string, error) {
	return render(ctx, intakePrompt, map[string]any{
		"SystemPrompt": systemPrompt,
		"UserInput":    userInput,
	})
}

// RenderFollowUp builds the prompt for subsequent clarifying turns. The model
// is told to emit the readiness phrase instead of a question once it has
// enough detail or the question budget is spent.
func RenderFollowUp(ctx context.Context, transcript string, questionBudget int) (string, error) {
	return render(ctx, followupPrompt, map[string]any{
		"SystemPrompt":   systemPrompt,
		"Transcript":     transcript,
		"QuestionBudget": questionBudget,
	})
}

// RenderExtraction builds the structured symptom extraction prompt over the
// combined user input.
func RenderExtraction(ctx context.Context, userInput string) (string, error) {
	return render(ctx, extractPrompt, map[string]any{
		"UserInput": userInput,
	})
}

// RenderResearchQuery builds the single research query sent to the research
// backend.
func RenderResearchQuery(ctx context.Context, userMessages []string, extractedData string) (string, error) {
	if strings.TrimSpace(extractedData) == "" {
		extractedData = "No structured symptom data available"
	}
	return render(ctx, researchPrompt, map[string]any{
		"UserInput":     strings.Join(userMessages, "\n"),
		"ExtractedData": extractedData,
	})
}

// RenderAnalysis builds the final analysis prompt combining symptoms,
// extraction and research findings.
func RenderAnalysis(ctx context.Context, userMessages []string, extractedData, researchData string) (string, error) {
	if strings.TrimSpace(extractedData) == "" {
		extractedData = "No structured symptom data available"
	}
	if strings.TrimSpace(researchData) == "" {
		researchData = "No research data available"
	}
	return render(ctx, analysisPrompt, map[string]any{
		"UserInput":     strings.Join(userMessages, "\n"),
		"ExtractedData": extractedData,
		"ResearchData":  researchData,
	})
}

// RenderQuiz builds the quiz generation prompt.
func RenderQuiz(ctx context.Context, topic string, numQuestions int, difficulty string) (string, error) {
	return render(ctx, quizPrompt, map[string]any{
		"Topic":        topic,
		"NumQuestions": numQuestions,
		"Difficulty":   difficulty,
	})
}

// FormatTranscript renders the message history the way the follow-up prompt
// expects it: one "User:"/"Assistant:" paragraph per message.
func FormatTranscript(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("User: " + msg.Content + "\n\n")
		case schema.Assistant:
			b.WriteString("Assistant: " + msg.Content + "\n\n")
		}
	}
	return b.String()
}
