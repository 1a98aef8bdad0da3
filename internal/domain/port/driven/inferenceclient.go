package driven

import "context"

// InferenceClient calls a hosted language-model endpoint to generate a reply
// for the free-form chat. Implementations handle transient endpoint errors
// (model loading, rate limits) internally.
type InferenceClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
