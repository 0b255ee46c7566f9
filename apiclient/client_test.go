package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	status, err := New(srv.URL+"/", nil).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestGenerateDiagram(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate-diagram", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a login flow", body["text"])
		_, _ = w.Write([]byte(`{"mermaidSyntax":"graph TD\nA-->B"}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL, nil).GenerateDiagram(context.Background(), "a login flow")
	require.NoError(t, err)
	assert.Equal(t, "graph TD\nA-->B", out)
}

func TestImproveDiagramError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "graph TD", body["currentDiagram"])
		assert.Equal(t, "add C", body["prompt"])
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Model returned invalid Mermaid syntax"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).ImproveDiagram(context.Background(), "graph TD", "add C")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Model returned invalid Mermaid syntax", apiErr.Error())
}

func TestErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GenerateDiagram(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "request failed with status 502", apiErr.Error())
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "wavbytes", string(data))
		assert.Equal(t, "recording.wav", header.Filename)
		_, _ = w.Write([]byte(`{"text":"add a database"}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL, nil).Transcribe(context.Background(), strings.NewReader("wavbytes"), "recording.wav")
	require.NoError(t, err)
	assert.Equal(t, "add a database", text)
}
