// Package editor keeps the diagram text buffer, the editing surface and the
// rendered preview in step.
//
// At any settled moment the surface content, the buffer and the source of the
// last successful render are equal. Renders run asynchronously; each one is
// tagged with a generation number and only the latest generation may update
// the preview. Superseded renders are also cancelled.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ai_diagram_generator/renderer"
)

// Surface is the text-editing widget. SetValue must not report the change back
// through the edit callback; programmatic replacement is silent.
type Surface interface {
	Value() string
	SetValue(text string)
}

// Normalizer is implemented by surfaces that rewrite text on SetValue, for
// example expanding tabs. Pushed text is normalized before it is compared.
type Normalizer interface {
	Normalize(text string) string
}

// Renderer parses markup with the engine's own grammar and returns SVG.
type Renderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// Preview is what the preview pane currently shows: either SVG or an error message.
type Preview struct {
	Source     string
	SVG        string
	Err        string
	Generation uint64
}

// Rendered reports whether a visual is available for export.
func (p Preview) Rendered() bool { return p.SVG != "" }

// Controller is the sync loop between a Surface, a Renderer and the app state.
type Controller struct {
	surface  Surface
	renderer Renderer
	onChange func(string)
	onRender func(Preview)
	logger   *slog.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	buffer  string
	gen     uint64
	cancel  context.CancelFunc
	preview Preview
}

// Option customizes a Controller.
type Option func(*Controller)

// OnRender registers a callback invoked after the preview changes.
// It runs on the render goroutine.
func OnRender(fn func(Preview)) Option {
	return func(c *Controller) { c.onRender = fn }
}

// WithLogger sets the logger used for render failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New mounts the controller: the surface is set to initial and rendered once.
// onChange receives every local edit, synchronously.
func New(surface Surface, r Renderer, initial string, onChange func(string), opts ...Option) (*Controller, error) {
	if surface == nil || r == nil {
		return nil, errors.New("editor: surface and renderer are required")
	}
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		surface:  surface,
		renderer: r,
		onChange: onChange,
		ctx:      ctx,
		stop:     stop,
		buffer:   initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	text := initial
	if n, ok := surface.(Normalizer); ok {
		text = n.Normalize(text)
	}
	surface.SetValue(text)
	c.render(c.settle(initial))
	return c, nil
}

// Push handles a new text arriving from above (generation or improvement).
// The surface is only overwritten, and re-rendered, when its content differs.
// It returns whether an overwrite happened.
func (c *Controller) Push(text string) bool {
	pushed := text
	if n, ok := c.surface.(Normalizer); ok {
		text = n.Normalize(text)
	}
	if c.surface.Value() == text {
		if text != pushed && c.onChange != nil {
			c.onChange(text)
		}
		return false
	}
	c.surface.SetValue(text)
	c.render(c.settle(pushed))
	return true
}

// settle adopts what the surface actually holds after SetValue as the buffer,
// reporting it upward when it differs from the text that was set.
func (c *Controller) settle(set string) string {
	text := c.surface.Value()
	c.mu.Lock()
	c.buffer = text
	c.mu.Unlock()
	if text != set && c.onChange != nil {
		c.onChange(text)
	}
	return text
}

// Edit is the surface's change notification: the text goes up to the app
// state and a render is attempted.
func (c *Controller) Edit(text string) {
	c.mu.Lock()
	c.buffer = text
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange(text)
	}
	c.render(text)
}

// Text returns the authoritative buffer.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// Preview returns the current preview.
func (c *Controller) Preview() Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// Wait blocks until no render is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels outstanding renders and waits for them to return.
func (c *Controller) Close() {
	c.stop()
	c.wg.Wait()
}

func (c *Controller) render(text string) {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()
		svg, err := c.renderer.Render(ctx, text)
		c.apply(ctx, gen, text, svg, err)
	}()
}

// apply installs a render result if gen is still the latest.
func (c *Controller) apply(ctx context.Context, gen uint64, text, svg string, err error) {
	c.mu.Lock()
	if gen != c.gen || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	p := Preview{Source: text, Generation: gen}
	if err != nil {
		p.Err = renderMessage(err)
		if c.logger != nil {
			c.logger.Debug("render failed", "generation", gen, "error", err)
		}
	} else {
		p.SVG = ScaleToFit(svg)
	}
	c.preview = p
	cb := c.onRender
	c.mu.Unlock()

	if cb != nil {
		cb(p)
	}
}

func renderMessage(err error) string {
	if renderer.IsSyntaxError(err) {
		return err.Error()
	}
	return "Render failed: " + err.Error()
}
