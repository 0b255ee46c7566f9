package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_diagram_generator/generator"
	"ai_diagram_generator/transcriber"
)

type stubGateway struct {
	out    string
	err    error
	calls  int
	args   []string
	panics bool
}

func (g *stubGateway) Generate(ctx context.Context, description string) (string, error) {
	g.calls++
	g.args = []string{description}
	if g.panics {
		panic("boom")
	}
	return g.out, g.err
}

func (g *stubGateway) Improve(ctx context.Context, current, instruction string) (string, error) {
	g.calls++
	g.args = []string{current, instruction}
	return g.out, g.err
}

type stubTranscriber struct {
	text string
	err  error
	got  []byte
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	s.got, _ = io.ReadAll(audio)
	return s.text, s.err
}

type fixedLLM string

func (f fixedLLM) Complete(context.Context, generator.Prompt) (string, error) {
	return string(f), nil
}

func newTestServer(t *testing.T, gw Gateway, tr transcriber.Transcriber) http.Handler {
	t.Helper()
	srv, err := New(gw, tr)
	require.NoError(t, err)
	return srv.Routes()
}

func doJSON(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestNewRequiresGateway(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &stubGateway{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerate(t *testing.T) {
	t.Run("missing text", func(t *testing.T) {
		gw := &stubGateway{}
		h := newTestServer(t, gw, nil)
		for _, body := range []string{`{}`, `{"text":""}`, `{"text":"   "}`} {
			rec, out := doJSON(t, h, "/api/generate-diagram", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, `Missing "text" in request body`, out["error"])
		}
		assert.Zero(t, gw.calls)
	})

	t.Run("invalid json", func(t *testing.T) {
		rec, out := doJSON(t, newTestServer(t, &stubGateway{}, nil), "/api/generate-diagram", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid JSON body", out["error"])
	})

	t.Run("success", func(t *testing.T) {
		gw := &stubGateway{out: "sequenceDiagram\n  User->>App: login\n"}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram",
			`{"text":"Create a login sequence diagram"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sequenceDiagram\n  User->>App: login", out["mermaidSyntax"])
		assert.Equal(t, []string{"Create a login sequence diagram"}, gw.args)
	})

	t.Run("empty completion", func(t *testing.T) {
		gw := &stubGateway{err: generator.ErrEmptyCompletion}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram", `{"text":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Empty Mermaid response from model", out["error"])
	})

	t.Run("blank output from gateway", func(t *testing.T) {
		for _, blank := range []string{"", "  \n\t"} {
			gw := &stubGateway{out: blank}
			rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram", `{"text":"x"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Empty Mermaid response from model", out["error"])
		}
	})

	t.Run("fenced output through the agent", func(t *testing.T) {
		agent, err := generator.NewAgent(fixedLLM("```mermaid\ngraph TD\n  A-->B\n```"))
		require.NoError(t, err)
		rec, out := doJSON(t, newTestServer(t, agent, nil), "/api/generate-diagram", `{"text":"two boxes"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "graph TD\n  A-->B", out["mermaidSyntax"])
	})

	t.Run("invalid model output", func(t *testing.T) {
		gw := &stubGateway{out: "hello world"}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram", `{"text":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Model returned invalid Mermaid syntax", out["error"])
	})

	t.Run("unexpected error is not leaked", func(t *testing.T) {
		gw := &stubGateway{err: errors.New("dial tcp 10.0.0.1: secret detail")}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram", `{"text":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgUnexpected, out["error"])
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		gw := &stubGateway{panics: true}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/generate-diagram", `{"text":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgUnexpected, out["error"])
	})
}

func TestImprove(t *testing.T) {
	t.Run("missing prompt", func(t *testing.T) {
		gw := &stubGateway{}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/improve-diagram", `{"currentDiagram":"graph TD"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, `Missing "prompt" in request body`, out["error"])
		assert.Zero(t, gw.calls)
	})

	t.Run("missing diagram", func(t *testing.T) {
		rec, out := doJSON(t, newTestServer(t, &stubGateway{}, nil), "/api/improve-diagram", `{"prompt":"add C"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, `Missing "currentDiagram" in request body`, out["error"])
	})

	t.Run("success", func(t *testing.T) {
		gw := &stubGateway{out: "timeline\n  title History"}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/improve-diagram",
			`{"currentDiagram":"graph TD\nA-->B","prompt":"make it a timeline"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "timeline\n  title History", out["mermaidSyntax"])
		assert.Equal(t, []string{"graph TD\nA-->B", "make it a timeline"}, gw.args)
	})

	t.Run("timeout", func(t *testing.T) {
		gw := &stubGateway{err: &generator.Error{Kind: generator.KindTimeout, Detail: "t", Err: context.DeadlineExceeded}}
		rec, out := doJSON(t, newTestServer(t, gw, nil), "/api/improve-diagram", `{"currentDiagram":"graph TD","prompt":"p"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Completion provider timed out", out["error"])
	})
}

func multipartAudio(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "recording.webm")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestTranscribe(t *testing.T) {
	post := func(h http.Handler, field string, data []byte) (*httptest.ResponseRecorder, map[string]string) {
		body, ct := multipartAudio(t, field, data)
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var out map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return rec, out
	}

	t.Run("success", func(t *testing.T) {
		tr := &stubTranscriber{text: "add a database"}
		rec, out := post(newTestServer(t, &stubGateway{}, tr), "audio", []byte("clip"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "add a database", out["text"])
		assert.Equal(t, []byte("clip"), tr.got)
	})

	t.Run("wrong field", func(t *testing.T) {
		rec, _ := post(newTestServer(t, &stubGateway{}, &stubTranscriber{}), "file", []byte("clip"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty clip", func(t *testing.T) {
		tr := &stubTranscriber{}
		rec, _ := post(newTestServer(t, &stubGateway{}, tr), "audio", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, tr.got)
	})

	t.Run("provider failure", func(t *testing.T) {
		tr := &stubTranscriber{err: errors.New("whisper down")}
		rec, out := post(newTestServer(t, &stubGateway{}, tr), "audio", []byte("clip"))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Transcription failed", out["error"])
	})

	t.Run("not configured", func(t *testing.T) {
		rec, _ := post(newTestServer(t, &stubGateway{}, nil), "audio", []byte("clip"))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, &stubGateway{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/generate-diagram", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestStatusFor(t *testing.T) {
	status, msg := statusFor(generator.ErrProvider)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Completion provider request failed", msg)
}

func TestServesWithAgent(t *testing.T) {
	agent, err := generator.NewAgent(generator.MockLLM{})
	require.NoError(t, err)
	rec, out := doJSON(t, newTestServer(t, agent, nil), "/api/generate-diagram", `{"text":"login flow"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generator.SampleDiagram, out["mermaidSyntax"])
}

func TestWrongMethodAndUnknownPath(t *testing.T) {
	h := newTestServer(t, &stubGateway{}, nil)
	tests := []struct {
		method string
		path   string
		status int
		allow  string
		msg    string
	}{
		{http.MethodGet, "/api/generate-diagram", http.StatusMethodNotAllowed, "POST", "Method not allowed"},
		{http.MethodPut, "/api/improve-diagram", http.StatusMethodNotAllowed, "POST", "Method not allowed"},
		{http.MethodGet, "/api/transcribe", http.StatusMethodNotAllowed, "POST", "Method not allowed"},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed, "GET", "Method not allowed"},
		{http.MethodGet, "/nope", http.StatusNotFound, "", "Not found"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
		})
	}
}
