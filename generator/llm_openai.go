package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// It also serves OpenAI-compatible endpoints such as LLM7 and DeepSeek via BaseURL.
type OpenAILLM struct {
	Model  string
	client openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings, extra ...option.RequestOption) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	// The gateway does not retry; failures surface to the caller as-is.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAILLM{Model: cfg.Model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	for _, m := range prompt.Messages() {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.Model),
		Messages:    msgs,
		Temperature: openai.Float(prompt.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
