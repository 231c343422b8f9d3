package surface

import (
	"context"
	"log/slog"

	"github.com/xob0t/GoStamp/pkg/compositor"
)

// Snapshotter rasterizes a flattened document: the converted HTML laid out
// in a fixed-width container with the stamp layers drawn over it, exactly as
// the interactive view shows them. The result has Index stamp.FlattenedPage.
type Snapshotter interface {
	Snapshot(ctx context.Context, html string, layers []compositor.Layer) (Page, error)
}

// FlattenedConfig describes the flattened container.
type FlattenedConfig struct {
	Width      int     // container width in pixels, default 1200
	MinHeight  int     // default 600
	Padding    int     // px around the content
	FontSize   float64 // base font size in pixels, default 16
	FontPath   string  // optional TTF for body text
	Background string  // default white
	Logger     *slog.Logger
}

func (c *FlattenedConfig) defaults() {
	if c.Width <= 0 {
		c.Width = 1200
	}
	if c.MinHeight <= 0 {
		c.MinHeight = 600
	}
	if c.Padding < 0 {
		c.Padding = 0
	}
	if c.FontSize <= 0 {
		c.FontSize = 16
	}
	if c.Background == "" {
		c.Background = "#ffffff"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
