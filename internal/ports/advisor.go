package ports

import "context"

// Completer is a generative text-completion service.
// Implementations must honor ctx cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single-turn prompt with a system instruction.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}
