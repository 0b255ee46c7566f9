package transcriber

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI transcribes through the OpenAI audio API.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string, client *http.Client) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing for transcription")
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(defaultClient(client)),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), filename, contentType),
		Model: openai.AudioModel(o.model),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
