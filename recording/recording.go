// Package recording captures microphone audio and turns it into prompt text.
//
// A Controller is either idle or capturing. It owns at most one capture at a
// time, and the device is released on every path out of capturing: stop,
// failure and Close.
package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("no usable microphone")
	ErrNoAudioCaptured   = errors.New("no audio was captured")
	ErrAlreadyRecording  = errors.New("already recording")
	ErrNotRecording      = errors.New("not recording")
)

// State of a Controller.
type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "capturing"
	}
	return "idle"
}

// Microphone opens a capture. onData receives each chunk of encoded audio
// and may be called from another goroutine.
type Microphone interface {
	Open(ctx context.Context, onData func([]byte)) (Capture, error)
}

// Capture is an open device handle.
type Capture interface {
	// Stop finalizes the capture; no onData call happens after it returns.
	Stop() error
	// Release frees the device. It is safe to call more than once.
	Release() error
}

// Transcriber turns an audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Sink is the part of the application state a recording writes to.
type Sink interface {
	AppendPrompt(text string) string
	BeginLoading()
	EndLoading()
	SetRecording(on bool)
}

// Filename sent with every clip.
const Filename = "recording.wav"

type Controller struct {
	mic    Microphone
	tr     Transcriber
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	capture Capture
	buf     *clip
}

func New(mic Microphone, tr Transcriber, sink Sink, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{mic: mic, tr: tr, sink: sink, logger: logger}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start requests the microphone and begins buffering audio.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Capturing {
		return ErrAlreadyRecording
	}
	buf := &clip{}
	capture, err := c.mic.Open(ctx, buf.write)
	if err != nil {
		c.logger.Warn("microphone open failed", "error", err)
		return err
	}
	c.capture = capture
	c.buf = buf
	c.state = Capturing
	c.sink.SetRecording(true)
	c.logger.Info("recording started")
	return nil
}

// Stop finalizes the capture, releases the device and transcribes the clip.
// The transcript is appended to the prompt and returned.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	payload, err := c.finish()
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		c.logger.Warn("recording stopped with no audio")
		return "", ErrNoAudioCaptured
	}

	c.sink.BeginLoading()
	defer c.sink.EndLoading()

	text, err := c.tr.Transcribe(ctx, bytes.NewReader(payload), Filename)
	if err != nil {
		c.logger.Error("transcription failed", "bytes", len(payload), "error", err)
		return "", transcriptionError(err)
	}
	text = strings.TrimSpace(text)
	c.sink.AppendPrompt(text)
	c.logger.Info("transcription appended", "bytes", len(payload), "chars", len(text))
	return text, nil
}

// transcriptionError prefixes err unless it already reads as a transcription failure.
func transcriptionError(err error) error {
	if strings.HasPrefix(strings.ToLower(err.Error()), "transcription failed") {
		return err
	}
	return fmt.Errorf("transcription failed: %w", err)
}

// finish moves the controller back to idle and returns the assembled payload.
func (c *Controller) finish() ([]byte, error) {
	c.mu.Lock()
	if c.state != Capturing {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	capture, buf := c.capture, c.buf
	c.capture, c.buf = nil, nil
	c.state = Idle
	c.mu.Unlock()
	c.sink.SetRecording(false)

	stopErr := capture.Stop()
	payload := buf.bytes()
	if err := capture.Release(); err != nil {
		c.logger.Warn("microphone release failed", "error", err)
	}
	if stopErr != nil {
		return nil, stopErr
	}
	return payload, nil
}

// Close releases the device if a capture is still open; buffered audio is discarded.
func (c *Controller) Close() error {
	c.mu.Lock()
	capture := c.capture
	wasCapturing := c.state == Capturing
	c.capture, c.buf = nil, nil
	c.state = Idle
	c.mu.Unlock()
	if !wasCapturing {
		return nil
	}
	c.sink.SetRecording(false)
	_ = capture.Stop()
	return capture.Release()
}

// clip collects audio chunks written by the capture goroutine.
type clip struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (b *clip) write(p []byte) {
	if len(p) == 0 {
		return
	}
	chunk := append([]byte(nil), p...)
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
}

func (b *clip) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Join(b.chunks, nil)
}
