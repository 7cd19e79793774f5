// Package agent holds the language-model boundary: prompt construction and
// providers that turn a prompt into a text completion. Parsing the reply is
// the protocol package's job; retry policy belongs to callers.
package agent

import (
	"context"
	"fmt"
)

// Provider defines the single LLM operation: submit a prompt, get text back.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewProvider creates a provider by name.
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}
