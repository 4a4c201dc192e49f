package model

import (
	"context"
)

// CompletionClient issues a single-turn text completion. Implementations wrap
// a concrete LLM backend; errors are session-fatal for the turn in progress.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ResearchClient answers a single web-research query. It never fails: a
// transport or API error is flattened into the returned text, which callers
// treat as legitimate research content.
type ResearchClient interface {
	Research(ctx context.Context, query string) string
}
