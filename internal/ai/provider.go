package ai

import "context"

type Message struct {
	Role    string
	Content string
}

// Provider generates a chat completion from an ordered message list.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Embedder turns text into a dense vector. Used by the processing pipeline
// and by retrieval-time query embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
