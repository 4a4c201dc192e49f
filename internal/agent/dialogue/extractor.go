package dialogue

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/prompts"
	logx "github.com/medlama/server/pkg/logger"
)

// SymptomExtractor derives a structured symptom summary from the raw message
// history with one completion call. Results are cached on the state with the
// message count at extraction time, so it only re-runs when new user messages
// have arrived since.
type SymptomExtractor struct {
	llm model.CompletionClient
}

func NewSymptomExtractor(llm model.CompletionClient) *SymptomExtractor {
	return &SymptomExtractor{llm: llm}
}

// Refresh recomputes st.SymptomDetails when the cache is stale. A completion
// failure propagates: the turn aborts and the caller discards the mutation.
func (e *SymptomExtractor) Refresh(ctx context.Context, st *model.DialogueState) error {
	last := st.LastMessage()
	if last == nil || last.Role != schema.User {
		return nil
	}
	if len(st.Messages) <= st.SymptomDetails.LastUpdated {
		return nil
	}

	prompt, err := prompts.RenderExtraction(ctx, strings.Join(st.UserMessages(), " "))
	if err != nil {
		return err
	}
	extracted, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	st.SymptomDetails = model.SymptomDetails{
		Extracted:   extracted,
		LastUpdated: len(st.Messages),
	}
	logx.Debug().Int("message_count", len(st.Messages)).Msg("symptom details refreshed")
	return nil
}
