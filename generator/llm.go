package generator

import (
	"context"
	"fmt"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Region   string
}

// DefaultLLM7BaseURL is the OpenAI-compatible endpoint used by the llm7 provider.
const DefaultLLM7BaseURL = "https://api.llm7.io/v1"

// NewLLM picks an LLMClient implementation by provider name.
func NewLLM(ctx context.Context, cfg LLMSettings) (LLMClient, error) {
	switch cfg.Provider {
	case "", "llm7":
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultLLM7BaseURL
		}
		if cfg.Model == "" {
			cfg.Model = "default"
		}
		return NewOpenAILLMFromConfig(&cfg)
	case "openai":
		return NewOpenAILLMFromConfig(&cfg)
	case "deepseek":
		// OpenAI-compatible; base_url is mandatory.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(&cfg)
	case "gemini":
		return NewGeminiLLM(ctx, &cfg)
	case "bedrock":
		return NewBedrockLLM(ctx, &cfg)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

// NeedsAPIKey reports whether provider authenticates with a static API key.
func NeedsAPIKey(provider string) bool {
	switch provider {
	case "bedrock", "mock":
		return false
	default:
		return true
	}
}
