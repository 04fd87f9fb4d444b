package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to any OpenAI-compatible chat-completions API.
// With several models configured it falls through to the next one when the
// endpoint reports the current model as unknown, and sticks with the first
// model that answers.
type OpenAIProvider struct {
	client  openai.Client
	name    string
	models  []string
	current atomic.Int32
}

func NewOpenAIProvider(name, apiKey, baseURL string, models ...string) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if len(models) == 0 {
		models = []string{"gpt-4o-mini"}
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		name:   name,
		models: models,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

// Model returns the model currently in use.
func (p *OpenAIProvider) Model() string {
	return p.models[int(p.current.Load())]
}

func (p *OpenAIProvider) Generate(ctx context.Context, history []Turn, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, t := range history {
		switch t.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	for {
		idx := int(p.current.Load())
		reply, err := p.complete(ctx, p.models[idx], msgs)
		if err == nil {
			return reply, nil
		}

		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && idx+1 < len(p.models) {
			p.current.CompareAndSwap(int32(idx), int32(idx+1))
			continue
		}
		return "", err
	}
}

func (p *OpenAIProvider) complete(ctx context.Context, model string, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s completion (%s): %w", p.name, model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion (%s): no choices: %w", p.name, model, ErrEmptyReply)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%s completion (%s): %w", p.name, model, ErrEmptyReply)
	}
	return reply, nil
}
