package ai

import "context"

// Client is a chat-completion model that answers with a single JSON object.
type Client interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
