package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"ai_diagram_generator/generator"
	"ai_diagram_generator/logging"
	"ai_diagram_generator/transcriber"
)

const (
	maxJSONBody  = 1 << 20
	maxAudioBody = 25 << 20
)

// Gateway is the completion side of the service; *generator.Agent implements it.
type Gateway interface {
	Generate(ctx context.Context, description string) (string, error)
	Improve(ctx context.Context, currentDiagram, instruction string) (string, error)
}

type Server struct {
	gateway     Gateway
	transcriber transcriber.Transcriber
	logger      *slog.Logger
	timeout     time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithTimeout bounds each upstream call made while serving a request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the HTTP service. tr may be nil, in which case /api/transcribe answers 503.
func New(gateway Gateway, tr transcriber.Transcriber, opts ...Option) (*Server, error) {
	if gateway == nil {
		return nil, errors.New("generator gateway required")
	}
	s := &Server{
		gateway:     gateway,
		transcriber: tr,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:     60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/generate-diagram", s.handleGenerate)
	mux.HandleFunc("POST /api/improve-diagram", s.handleImprove)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)

	// Method-less patterns are less specific, so they only see wrong methods.
	mux.HandleFunc("/health", methodNotAllowed(http.MethodGet))
	for _, path := range []string{"/api/generate-diagram", "/api/improve-diagram", "/api/transcribe"} {
		mux.HandleFunc(path, methodNotAllowed(http.MethodPost))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return logMiddleware(s.logger, cors(recoverMiddleware(s.logger, mux)))
}

// ListenAndServe serves until ctx is cancelled, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// --- Handlers ---

type generateReq struct {
	Text string `json:"text"`
}

type improveReq struct {
	CurrentDiagram string `json:"currentDiagram"`
	Prompt         string `json:"prompt"`
}

type diagramResp struct {
	MermaidSyntax string `json:"mermaidSyntax"`
}

type transcribeResp struct {
	Text string `json:"text"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if !s.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, `Missing "text" in request body`)
		return
	}
	s.logger.Info("received description", "route", "generate", "len", len(text), "preview", logging.Preview(text, 80))

	ctx, cancel := s.requestContext(r)
	defer cancel()
	out, err := s.gateway.Generate(ctx, text)
	s.respondDiagram(w, "generate", out, err)
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	var req improveReq
	if !s.decode(w, r, &req) {
		return
	}
	current := strings.TrimSpace(req.CurrentDiagram)
	instruction := strings.TrimSpace(req.Prompt)
	switch {
	case current == "":
		writeError(w, http.StatusBadRequest, `Missing "currentDiagram" in request body`)
		return
	case instruction == "":
		writeError(w, http.StatusBadRequest, `Missing "prompt" in request body`)
		return
	}
	s.logger.Info("received improvement", "route", "improve",
		"diagram_len", len(current), "prompt", logging.Preview(instruction, 80))

	ctx, cancel := s.requestContext(r)
	defer cancel()
	out, err := s.gateway.Improve(ctx, current, instruction)
	s.respondDiagram(w, "improve", out, err)
}

// respondDiagram validates the gateway result and writes the response.
func (s *Server) respondDiagram(w http.ResponseWriter, route, out string, err error) {
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = generator.ErrEmptyCompletion
		} else {
			err = generator.CheckDiagram(out)
		}
	}
	if err != nil {
		status, msg := statusFor(err)
		s.logger.Error("diagram request failed", "route", route, "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	s.logger.Info("generated diagram", "route", route,
		"type", generator.MatchKeyword(out), "len", len(out))
	writeJSON(w, http.StatusOK, diagramResp{MermaidSyntax: out})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "Transcription is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, `Missing "audio" in form data`)
		return
	}
	defer file.Close()
	if header.Size == 0 {
		writeError(w, http.StatusBadRequest, "No audio captured")
		return
	}
	filename := header.Filename
	if filename == "" {
		filename = "recording.webm"
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	text, err := s.transcriber.Transcribe(ctx, file, filename)
	if err != nil {
		if errors.Is(err, transcriber.ErrEmptyAudio) {
			writeError(w, http.StatusBadRequest, "No audio captured")
			return
		}
		s.logger.Error("transcription failed", "error", err, "bytes", header.Size)
		writeError(w, http.StatusBadGateway, "Transcription failed")
		return
	}
	s.logger.Info("transcribed audio", "bytes", header.Size, "text", logging.Preview(text, 80))
	writeJSON(w, http.StatusOK, transcribeResp{Text: text})
}

// --- Helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}
