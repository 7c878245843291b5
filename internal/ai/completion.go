package ai

import (
	"context"
	"fmt"
)

// Mode selects the system instruction and sampling settings of a completion.
type Mode int

const (
	ModeReply Mode = iota
	ModeClassify
)

const (
	replySystemPrompt    = "You are a helpful AI assistant for The Limbo Studio, a bespoke AI consultancy."
	classifySystemPrompt = "You are a classification system. Return only valid JSON with classification and reasoning fields."
)

// Completer turns a prompt into completion text with the given model.
type Completer interface {
	Complete(ctx context.Context, prompt, model string, mode Mode) (string, error)
}

// Client resolves a provider per model from the registry and performs a
// single, non-retried completion call.
type Client struct {
	registry *Registry
	provider string
}

func NewClient(registry *Registry, provider string) *Client {
	return &Client{registry: registry, provider: provider}
}

func (c *Client) Complete(ctx context.Context, prompt, model string, mode Mode) (string, error) {
	p, err := c.registry.Get(ctx, c.provider, model)
	if err != nil {
		return "", err
	}

	system, opts := modeSettings(mode)
	out, err := p.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, opts)
	if err != nil {
		return "", fmt.Errorf("completion model=%s: %w", model, err)
	}
	return out, nil
}

func modeSettings(mode Mode) (string, Options) {
	switch mode {
	case ModeClassify:
		return classifySystemPrompt, Options{Temperature: 0, MaxTokens: 100, JSON: true}
	default:
		return replySystemPrompt, Options{Temperature: 0.7, MaxTokens: 2000}
	}
}
