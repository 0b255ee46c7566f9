package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const defaultBedrockModel = "global.anthropic.claude-haiku-4-5-20251001-v1:0"

// BedrockLLM calls Claude models through the AWS Bedrock Runtime.
// Credentials come from the default AWS chain, not from LLMSettings.APIKey.
type BedrockLLM struct {
	client *bedrockruntime.Client
	model  string
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewBedrockLLM(ctx context.Context, cfg *LLMSettings) (*BedrockLLM, error) {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	model := cfg.Model
	if model == "" || model == "default" {
		model = defaultBedrockModel
	}
	return &BedrockLLM{client: bedrockruntime.NewFromConfig(awsCfg), model: model}, nil
}

func (b *BedrockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4096,
		Temperature:      prompt.Temperature,
		System:           prompt.System,
		Messages:         []claudeMessage{{Role: string(RoleUser), Content: prompt.User}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.model),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return text, nil
}
