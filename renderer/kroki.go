// Package renderer turns Mermaid markup into SVG through a rendering engine.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Engine renders markup to SVG.
type Engine interface {
	Render(ctx context.Context, source string) (string, error)
}

// Rasterizer renders markup to PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, source string) ([]byte, error)
}

// SyntaxError is the engine rejecting the markup; Message is human readable.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string { return e.Message }

// ErrEmptySource is returned for blank markup without calling the engine.
var ErrEmptySource = &SyntaxError{Message: "No diagram to render"}

const maxResponse = 10 << 20

// Kroki renders through a Kroki server (https://kroki.io or self-hosted).
type Kroki struct {
	baseURL string
	client  *http.Client
}

func NewKroki(baseURL string, client *http.Client) *Kroki {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Kroki{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (k *Kroki) Render(ctx context.Context, source string) (string, error) {
	out, err := k.post(ctx, "svg", source)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (k *Kroki) Rasterize(ctx context.Context, source string) ([]byte, error) {
	return k.post(ctx, "png", source)
}

func (k *Kroki) post(ctx context.Context, format, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/mermaid/"+format, strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusBadRequest:
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "Syntax error in diagram"
		}
		return nil, &SyntaxError{Message: msg}
	default:
		return nil, fmt.Errorf("kroki: %s", resp.Status)
	}
}

// IsSyntaxError reports whether err is the engine rejecting the markup.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
