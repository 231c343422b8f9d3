// Package export re-renders a document with its stamps flattened into the
// page rasters and hands the result to an encoder.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/stamp"
	"github.com/xob0t/GoStamp/pkg/surface"
)

// ErrNoDocument is returned when there is nothing to export.
var ErrNoDocument = errors.New("export: no document loaded")

// Source renders every page of a document with its placements composited.
type Source interface {
	Render(ctx context.Context, snap *stamp.Snapshot) ([]surface.Page, error)
}

// ── Paged documents ──

// PagedSource composites each page of a paginated document.
type PagedSource struct {
	Pages      surface.Provider
	Compositor *compositor.Compositor
	Logger     *slog.Logger
}

// Render walks pages 1..N. A page that cannot be decoded aborts the render;
// placements whose stamp no longer exists are skipped.
func (s PagedSource) Render(ctx context.Context, snap *stamp.Snapshot) ([]surface.Page, error) {
	if s.Pages == nil || s.Pages.PageCount() == 0 {
		return nil, ErrNoDocument
	}
	log := logger(s.Logger)

	out := make([]surface.Page, 0, s.Pages.PageCount())
	for n := 1; n <= s.Pages.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.Pages.Page(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		rendered, err := RenderPage(s.Compositor, page, snap, n)
		if err != nil {
			return nil, err
		}
		log.Debug("export: page rendered", "page", n, "placements", len(snap.ForPage(n)))
		out = append(out, rendered)
	}
	return out, nil
}

// RenderPage composites the snapshot's placements for one page raster. It is
// also used for the interactive preview so both paths share one renderer.
func RenderPage(c *compositor.Compositor, page surface.Page, snap *stamp.Snapshot, n int) (surface.Page, error) {
	layers, _, err := compositor.Resolve(snap, snap.ForPage(n))
	if err != nil {
		return surface.Page{}, fmt.Errorf("page %d: %w", n, err)
	}
	out := surface.NewPage(n, c.Composite(page.Image, layers))
	return out, nil
}

// ── Flattened documents ──

// FlattenedSource renders a non-paginated document as one raster.
type FlattenedSource struct {
	HTML        string
	Snapshotter surface.Snapshotter
}

// Render snapshots the flattened surface with its placements.
func (s FlattenedSource) Render(ctx context.Context, snap *stamp.Snapshot) ([]surface.Page, error) {
	if s.Snapshotter == nil {
		return nil, ErrNoDocument
	}
	layers, _, err := compositor.Resolve(snap, snap.ForPage(stamp.FlattenedPage))
	if err != nil {
		return nil, err
	}
	page, err := s.Snapshotter.Snapshot(ctx, s.HTML, layers)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return []surface.Page{page}, nil
}

// ── Pipeline ──

// Pipeline sequences rendering and encoding.
type Pipeline struct {
	Logger *slog.Logger
}

// Result summarizes one export.
type Result struct {
	Pages   int
	Skipped int // orphaned placements left out
	Took    time.Duration
}

// Export renders src against snap and writes the encoded file to w. Nothing is
// written to w unless every page rendered and encoded.
func (p Pipeline) Export(ctx context.Context, src Source, snap *stamp.Snapshot, enc encoder.Encoder, w io.Writer) (Result, error) {
	log := logger(p.Logger)
	start := time.Now()

	pages, err := src.Render(ctx, snap)
	if err != nil {
		log.Error("export: render failed", "error", err)
		return Result{}, fmt.Errorf("render: %w", err)
	}
	if err := enc.Encode(w, pages); err != nil {
		log.Error("export: encode failed", "format", enc.Ext(), "error", err)
		return Result{}, fmt.Errorf("encode: %w", err)
	}

	res := Result{Pages: len(pages), Skipped: len(snap.Orphans()), Took: time.Since(start)}
	log.Info("export: done", "pages", res.Pages, "format", enc.Ext(), "skipped", res.Skipped, "took", res.Took)
	return res, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
