package llm

import "context"

// Client produces a completion for a single prompt. The pipeline composes
// its own prompts, so the contract stays deliberately small.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
