package generator

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiLLM is a thin wrapper around the official genai client.
type GeminiLLM struct {
	cli   *genai.Client
	model string
}

func NewGeminiLLM(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key")
	}
	model := cfg.Model
	if model == "" || model == "default" {
		model = "gemini-2.0-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiLLM{cli: cli, model: model}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	temp := float32(prompt.Temperature)
	conf := &genai.GenerateContentConfig{Temperature: &temp}
	if prompt.System != "" {
		conf.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}}},
		conf,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
