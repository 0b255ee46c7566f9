// Package transcriber sends recorded audio to a speech-to-text provider.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai_diagram_generator/config"
)

// Transcriber turns an audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ErrEmptyAudio is returned before any network call when the clip has no bytes.
var ErrEmptyAudio = errors.New("no audio provided")

// New builds the Transcriber selected by cfg.
func New(cfg config.TranscriptionConfig, client *http.Client) (Transcriber, error) {
	switch cfg.Provider {
	case "", "whisper":
		if cfg.URL == "" {
			return nil, errors.New("transcription url is required for the whisper provider")
		}
		return NewWhisper(cfg.URL, client), nil
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, client)
	default:
		return nil, fmt.Errorf("transcription provider %s not supported", cfg.Provider)
	}
}

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return client
}
