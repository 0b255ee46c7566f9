package generator

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a gateway failure so callers can map it without string matching.
type Kind int

const (
	KindProvider Kind = iota
	KindTimeout
	KindEmptyCompletion
	KindInvalidModelOutput
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindEmptyCompletion:
		return "empty_completion"
	case KindInvalidModelOutput:
		return "invalid_model_output"
	default:
		return "provider"
	}
}

// Error is the failure half of a gateway call.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptyCompletion    = &Error{Kind: KindEmptyCompletion, Detail: "model returned an empty completion"}
	ErrInvalidModelOutput = &Error{Kind: KindInvalidModelOutput, Detail: "model returned invalid Mermaid syntax"}
	ErrProvider           = &Error{Kind: KindProvider, Detail: "completion provider failed"}
	ErrTimeout            = &Error{Kind: KindTimeout, Detail: "completion provider timed out"}
)

// providerError wraps a transport failure from an LLMClient.
func providerError(err error) error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: ErrTimeout.Detail, Err: err}
	}
	return &Error{Kind: KindProvider, Detail: ErrProvider.Detail, Err: err}
}
