package research

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/prompts"
	logx "github.com/medlama/server/pkg/logger"
)

const defaultBaseURL = "https://api.perplexity.ai"

// Config holds what is needed to construct the Perplexity research client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   model.ResearchModelConfig
}

// PerplexityClient answers research queries through the Perplexity
// chat-completions API, which speaks the OpenAI wire format. It satisfies
// model.ResearchClient: failures never surface as errors, they are flattened
// into the returned text so a broken research backend degrades a session into
// a report that visibly carries the error note instead of aborting it.
type PerplexityClient struct {
	client  *openai.Client
	cfg     model.ResearchModelConfig
	timeout time.Duration
}

func NewPerplexityClient(cfg Config) *PerplexityClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL

	timeout := time.Duration(cfg.Model.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &PerplexityClient{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg.Model,
		timeout: timeout,
	}
}

// Research runs one query. Never returns an error.
func (c *PerplexityClient) Research(ctx context.Context, query string) string {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.ResearchSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		logx.Error().Err(err).Msg("research request failed")
		return fmt.Sprintf("Error researching topic: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "No content found."
	}
	return resp.Choices[0].Message.Content
}

var _ model.ResearchClient = (*PerplexityClient)(nil)
