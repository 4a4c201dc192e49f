package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/medlama/server/internal/agent/model"
	errx "github.com/medlama/server/internal/core/error"
	logx "github.com/medlama/server/pkg/logger"
)

const retryBackoff = 2 * time.Second

// observers is shared by every client instance; handlers are stateless.
var observers = NewObserverCallbacks()

// Config holds what is needed to construct the Gemini-backed completion client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   model.CompletionModelConfig
}

// GeminiClient satisfies model.CompletionClient with a Gemini chat model.
// Each call is bounded by a per-request timeout and retried at most
// Model.MaxRetries times with a short backoff before the failure propagates.
type GeminiClient struct {
	cm         einomodel.BaseChatModel
	timeout    time.Duration
	maxRetries int
}

// NewGeminiClient builds the genai client and the Eino Gemini chat model.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model.Model,
		Temperature: &cfg.Model.Temperature,
		MaxTokens:   &cfg.Model.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating completion model")
		return nil, fmt.Errorf("error creating completion model: %w", err)
	}

	return newGeminiClient(cm, cfg.Model), nil
}

func newGeminiClient(cm einomodel.BaseChatModel, cfg model.CompletionModelConfig) *GeminiClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &GeminiClient{cm: cm, timeout: timeout, maxRetries: retries}
}

// Complete issues one single-turn completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx = einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      "completion",
		Type:      "ChatModel",
		Component: components.ComponentOfChatModel,
	}, observers)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logx.Warn().Err(lastErr).Int("attempt", attempt).Msg("retrying completion")
			select {
			case <-ctx.Done():
				return "", errx.WrapCompletion(ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := c.cm.Generate(callCtx, []*schema.Message{schema.UserMessage(prompt)})
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if out == nil {
			lastErr = fmt.Errorf("empty completion response")
			continue
		}
		return out.Content, nil
	}
	return "", errx.WrapCompletion(lastErr)
}

var _ model.CompletionClient = (*GeminiClient)(nil)
