package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion call.
type Options struct {
	Temperature float32
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}
