package server

import (
	"errors"
	"net/http"

	"ai_diagram_generator/generator"
)

const msgUnexpected = "An unexpected error occurred"

// statusFor maps a gateway or validation failure to the response status and
// client-facing message. Underlying error text never reaches the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrEmptyCompletion):
		return http.StatusInternalServerError, "Empty Mermaid response from model"
	case errors.Is(err, generator.ErrInvalidModelOutput):
		return http.StatusInternalServerError, "Model returned invalid Mermaid syntax"
	case errors.Is(err, generator.ErrTimeout):
		return http.StatusInternalServerError, "Completion provider timed out"
	case errors.Is(err, generator.ErrProvider):
		return http.StatusInternalServerError, "Completion provider request failed"
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}
