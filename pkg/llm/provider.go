// Package llm defines the chat-completion provider used by the translation
// capability.
//
// Example usage:
//
//	provider, err := openai.NewProvider(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reply, err := provider.Complete(ctx, []*llm.Message{
//	    llm.NewSystemMessage("Translate to English."),
//	    llm.NewUserMessage("La opinión de hoy"),
//	})
package llm

import "context"

// ModelCloner is implemented by providers that can hand out an independent
// copy directed at another model. Session runners use it to get a provider
// of their own without rebuilding credentials.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// Provider sends chat messages to an LLM.
type Provider interface {
	// StreamCompletion streams the response. The channel is closed when the
	// stream ends; stream-time errors arrive as chunks with Error set.
	StreamCompletion(ctx context.Context, messages []*Message) (<-chan *StreamChunk, error)

	// Complete accumulates the streamed response into one message.
	Complete(ctx context.Context, messages []*Message) (*Message, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}
