// Package llm wraps the chat-completion backends the orchestrator can talk to
// behind a single Provider interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role of a context turn, matching the stored message roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message replayed to the model as context.
type Turn struct {
	Role    Role
	Content string
}

// Provider generates a reply for prompt, given earlier turns of the conversation.
type Provider interface {
	Name() string
	Generate(ctx context.Context, history []Turn, prompt string) (string, error)
}

var (
	ErrMissingAPIKey   = errors.New("llm api key is not configured")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrEmptyReply      = errors.New("model returned an empty reply")
)

// Temperature used for every completion.
const Temperature = 0.7

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// geminiModels are tried in order until one is accepted by the endpoint.
var geminiModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro", "gemini-1.0-pro"}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	// Model may list several comma-separated fallbacks.
	Model   string
	BaseURL string
}

// New builds the configured provider. Networked providers require an API key.
func New(cfg Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == ProviderMock {
		return NewMockProvider(), nil
	}

	switch name {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}

	models := splitModels(cfg.Model)

	switch name {
	case ProviderGemini:
		if len(models) == 0 {
			models = geminiModels
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
		return NewOpenAIProvider(ProviderGemini, cfg.APIKey, baseURL, models...), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, models...), nil
	default:
		model := ""
		if len(models) > 0 {
			model = models[0]
		}
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, model), nil
	}
}

func splitModels(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
