package llm

import (
	"context"
	"fmt"
)

// MockProvider answers without any network access. It is meant for local
// development and end-to-end tests of the HTTP surface.
type MockProvider struct {
	// Reply overrides the canned answer when set.
	Reply func(history []Turn, prompt string) (string, error)
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return ProviderMock }

func (p *MockProvider) Generate(ctx context.Context, history []Turn, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Reply != nil {
		return p.Reply(history, prompt)
	}
	return fmt.Sprintf("This is a general information reply generated without a model (%d earlier messages considered). Please consult a healthcare professional for advice about your situation.", len(history)), nil
}
