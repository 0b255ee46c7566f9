package generator

import (
	"context"
	"errors"
)

// Agent 封装对补全服务的两种调用：生成与修改。不做重试。
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Generate 根据自然语言描述生成图。
func (a *Agent) Generate(ctx context.Context, description string) (string, error) {
	return a.complete(ctx, BuildGeneratePrompt(description))
}

// Improve 根据指令修改当前图。
func (a *Agent) Improve(ctx context.Context, currentDiagram, instruction string) (string, error) {
	return a.complete(ctx, BuildImprovePrompt(currentDiagram, instruction))
}

func (a *Agent) complete(ctx context.Context, prompt Prompt) (string, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", providerError(err)
	}
	return PostProcess(raw)
}
