package generator

import (
	"context"
	"log/slog"
	"time"
)

// Middleware decorates an LLMClient with a cross-cutting concern.
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order: Wrap(inner, A, B) => A(B(inner)).
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

type clientFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f clientFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds each provider call. d <= 0 disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		if d <= 0 {
			return next
		}
		return clientFunc(func(ctx context.Context, prompt Prompt) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, prompt)
		})
	}
}

// WithLogging logs request and response sizes and latency of each provider call.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next LLMClient) LLMClient {
		if logger == nil {
			return next
		}
		return clientFunc(func(ctx context.Context, prompt Prompt) (string, error) {
			start := time.Now()
			out, err := next.Complete(ctx, prompt)
			attrs := []any{
				"temperature", prompt.Temperature,
				"prompt_bytes", len(prompt.System) + len(prompt.User),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.Warn("llm call failed", append(attrs, "error", err)...)
				return "", err
			}
			logger.Info("llm call", append(attrs, "completion_bytes", len(out))...)
			return out, nil
		})
	}
}
