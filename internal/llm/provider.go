package llm

import "context"

// Provider defines the interface for LLM providers. Implementations make a
// single attempt per call and surface failures to the caller; retry policy
// lives in RetryingProvider.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
