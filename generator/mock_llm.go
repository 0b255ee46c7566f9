package generator

import "context"

// MockLLM 本地调试用，不调用外部模型，总是返回示例时序图。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, _ Prompt) (string, error) {
	return SampleDiagram, nil
}

// SamplePrompt pairs with SampleDiagram.
const SamplePrompt = `Create a sequence diagram for user login with email and password.
Include frontend, backend API, and database.`

const SampleDiagram = `sequenceDiagram
  participant User
  participant Frontend
  participant API
  participant DB

  User->>Frontend: Enter email & password
  Frontend->>API: POST /login
  API->>DB: Validate credentials
  DB-->>API: User record
  API-->>Frontend: JWT token
  Frontend-->>User: Login success`
