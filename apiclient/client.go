// Package apiclient is the frontend's HTTP client for the diagram backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// APIError carries the backend's {"error": ...} message and status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Client talks to the backend's /health and /api/* routes.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type healthResp struct {
	Status string `json:"status"`
}

type diagramResp struct {
	MermaidSyntax string `json:"mermaidSyntax"`
	Error         string `json:"error"`
}

type transcribeResp struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Health returns the backend's reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", err
	}
	var data healthResp
	if err := c.do(req, &data, nil); err != nil {
		return "", err
	}
	return data.Status, nil
}

// GenerateDiagram posts a description and returns the generated markup.
func (c *Client) GenerateDiagram(ctx context.Context, text string) (string, error) {
	return c.postDiagram(ctx, "/api/generate-diagram", map[string]string{"text": text})
}

// ImproveDiagram posts the current markup with an instruction.
func (c *Client) ImproveDiagram(ctx context.Context, currentDiagram, prompt string) (string, error) {
	return c.postDiagram(ctx, "/api/improve-diagram", map[string]string{
		"currentDiagram": currentDiagram,
		"prompt":         prompt,
	})
}

func (c *Client) postDiagram(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var data diagramResp
	if err := c.do(req, &data, func() string { return data.Error }); err != nil {
		return "", err
	}
	return data.MermaidSyntax, nil
}

// Transcribe uploads a clip as multipart field "audio".
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var data transcribeResp
	if err := c.do(req, &data, func() string { return data.Error }); err != nil {
		return "", err
	}
	return data.Text, nil
}

// do sends req and decodes the JSON body into out. Non-2xx responses become
// *APIError with the message returned by errMsg after decoding.
func (c *Client) do(req *http.Request, out any, errMsg func() string) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && errMsg != nil {
			apiErr.Message = errMsg()
		}
		return apiErr
	}
	return decodeErr
}
