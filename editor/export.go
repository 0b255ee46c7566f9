package editor

import (
	"context"
	"errors"
	"io"

	"github.com/atotto/clipboard"
)

// Rasterizer produces PNG bytes for markup.
type Rasterizer interface {
	Rasterize(ctx context.Context, source string) ([]byte, error)
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// ExportSVG writes the current visual. It returns false, and writes nothing,
// when no visual is rendered.
func (c *Controller) ExportSVG(w io.Writer) (bool, error) {
	p := c.Preview()
	if !p.Rendered() {
		return false, nil
	}
	_, err := io.WriteString(w, p.SVG)
	return err == nil, err
}

// ExportPNG rasterizes the markup behind the current visual.
func (c *Controller) ExportPNG(ctx context.Context, r Rasterizer, w io.Writer) (bool, error) {
	p := c.Preview()
	if !p.Rendered() {
		return false, nil
	}
	if r == nil {
		return false, errors.New("raster export unavailable")
	}
	png, err := r.Rasterize(ctx, p.Source)
	if err != nil {
		return false, err
	}
	if _, err := w.Write(png); err != nil {
		return false, err
	}
	return true, nil
}

// CopyText copies the markup behind the current visual.
func (c *Controller) CopyText(cb Clipboard) (bool, error) {
	p := c.Preview()
	if !p.Rendered() {
		return false, nil
	}
	if err := cb.WriteAll(p.Source); err != nil {
		return false, err
	}
	return true, nil
}
