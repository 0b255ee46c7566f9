package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

var (
	ErrEmptyPrompt  = errors.New("enter a description first")
	ErrEmptyDiagram = errors.New("there is no diagram to improve yet")
	ErrBusy         = errors.New("a request of this kind is already running")
)

// API is the backend as seen by the frontend.
type API interface {
	Health(ctx context.Context) (string, error)
	GenerateDiagram(ctx context.Context, text string) (string, error)
	ImproveDiagram(ctx context.Context, currentDiagram, prompt string) (string, error)
}

// Controller runs the user-triggered actions against State. Generate and
// Improve each allow one request in flight.
type Controller struct {
	api     API
	apiURL  string
	state   *State
	logger  *slog.Logger
	genBusy atomic.Bool
	impBusy atomic.Bool
}

func NewController(api API, apiURL string, state *State, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{api: api, apiURL: apiURL, state: state, logger: logger}
}

func (c *Controller) State() *State { return c.state }

// CheckHealth queries the backend and stores a status line.
func (c *Controller) CheckHealth(ctx context.Context) string {
	status, err := c.api.Health(ctx)
	var line string
	if err != nil {
		c.logger.Warn("health check failed", "url", c.apiURL, "error", err)
		line = "Backend unavailable at " + c.apiURL
	} else {
		line = "Backend status: " + status
	}
	c.state.SetStatus(line)
	return line
}

// Generate replaces the diagram with one generated from the prompt.
func (c *Controller) Generate(ctx context.Context) (string, error) {
	prompt := c.state.Prompt()
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if !c.genBusy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.genBusy.Store(false)

	return c.run(ctx, "generate", func() (string, error) {
		return c.api.GenerateDiagram(ctx, prompt)
	})
}

// Improve applies the prompt as an instruction to the current diagram.
func (c *Controller) Improve(ctx context.Context) (string, error) {
	snap := c.state.Snapshot()
	if strings.TrimSpace(snap.Diagram) == "" {
		return "", ErrEmptyDiagram
	}
	if strings.TrimSpace(snap.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if !c.impBusy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.impBusy.Store(false)

	return c.run(ctx, "improve", func() (string, error) {
		return c.api.ImproveDiagram(ctx, snap.Diagram, snap.Prompt)
	})
}

func (c *Controller) run(ctx context.Context, action string, call func() (string, error)) (string, error) {
	c.state.BeginLoading()
	defer c.state.EndLoading()
	c.state.SetError(nil)

	diagram, err := call()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%s cancelled: %w", action, ctx.Err())
		}
		c.logger.Error(action+" failed", "error", err)
		c.state.SetError(err)
		return "", err
	}
	c.logger.Info(action+" succeeded", "chars", len(diagram))
	c.state.SetDiagram(diagram)
	return diagram, nil
}
