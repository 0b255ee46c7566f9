package transcriber

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_diagram_generator/config"
)

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFFdata", string(data))
		assert.Equal(t, "clip.wav", header.Filename)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " add a database "})
	}))
	defer srv.Close()

	text, err := NewWhisper(srv.URL, nil).Transcribe(context.Background(), strings.NewReader("RIFFdata"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "add a database", text)
}

func TestWhisperProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "No audio file provided"})
	}))
	defer srv.Close()

	_, err := NewWhisper(srv.URL, nil).Transcribe(context.Background(), strings.NewReader("x"), "clip.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No audio file provided")
}

func TestWhisperEmptyAudioSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewWhisper(srv.URL, nil).Transcribe(context.Background(), strings.NewReader(""), "clip.wav")
	assert.ErrorIs(t, err, ErrEmptyAudio)
	assert.False(t, called)
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"), r.URL.Path)
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"draw a queue"}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAI("k", srv.URL+"/v1/", "", nil)
	require.NoError(t, err)
	text, err := tr.Transcribe(context.Background(), strings.NewReader("audio"), "clip.webm")
	require.NoError(t, err)
	assert.Equal(t, "draw a queue", text)
}

func TestNew(t *testing.T) {
	tr, err := New(config.TranscriptionConfig{Provider: "whisper", URL: "http://x"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Whisper{}, tr)

	_, err = New(config.TranscriptionConfig{Provider: "whisper"}, nil)
	assert.Error(t, err)
	_, err = New(config.TranscriptionConfig{Provider: "openai"}, nil)
	assert.Error(t, err)
	_, err = New(config.TranscriptionConfig{Provider: "deepgram"}, nil)
	assert.Error(t, err)
}
