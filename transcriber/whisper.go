package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// Whisper posts audio to a self-hosted faster-whisper style service:
// multipart field "file" in, {"text": "..."} out.
type Whisper struct {
	url    string
	client *http.Client
}

func NewWhisper(url string, client *http.Client) *Whisper {
	return &Whisper{url: url, client: defaultClient(client)}
}

type whisperResp struct {
	Text   string `json:"text"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(part, audio)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrEmptyAudio
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data whisperResp
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	_ = json.Unmarshal(raw, &data)
	if resp.StatusCode/100 != 2 {
		msg := firstNonEmpty(data.Detail, data.Error, strings.TrimSpace(string(raw)), resp.Status)
		return "", fmt.Errorf("transcription failed: %d %s", resp.StatusCode, msg)
	}
	return strings.TrimSpace(data.Text), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
