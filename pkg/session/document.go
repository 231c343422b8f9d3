// document.go — Loading documents and serving their page rasters.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/export"
	"github.com/xob0t/GoStamp/pkg/stamp"
	"github.com/xob0t/GoStamp/pkg/surface"
)

// Kind is the uploaded document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// DetectKind maps a file name to a supported format by its extension,
// case-insensitively.
func DetectKind(name string) (Kind, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q (use .pdf or .docx)", ErrUnsupportedDocument, ext)
	}
}

// document is an immutable loaded document: either rasterized pages or the
// HTML of a flattened surface.
type document struct {
	name  string
	kind  Kind
	pages *surface.Document
	html  string
}

func (d *document) flattened() bool { return d.pages == nil }

func (d *document) pageCount() int {
	if d.flattened() {
		return 1
	}
	return d.pages.PageCount()
}

func (d *document) source(cfg Config) export.Source {
	if d.flattened() {
		return export.FlattenedSource{HTML: d.html, Snapshotter: cfg.Snapshotter}
	}
	return export.PagedSource{Pages: d.pages, Compositor: cfg.Compositor, Logger: cfg.Logger}
}

// raster renders page n, with the snapshot's placements when snap is non-nil.
func (d *document) raster(ctx context.Context, cfg Config, n int, snap *stamp.Snapshot) (surface.Page, error) {
	if d.flattened() {
		if n != stamp.FlattenedPage {
			return surface.Page{}, fmt.Errorf("%w: %d (flattened document)", surface.ErrPageRange, n)
		}
		if cfg.Snapshotter == nil {
			return surface.Page{}, fmt.Errorf("%w: no snapshotter configured", ErrNoDocument)
		}
		var layers []compositor.Layer
		if snap != nil {
			var err error
			if layers, _, err = compositor.Resolve(snap, snap.ForPage(stamp.FlattenedPage)); err != nil {
				return surface.Page{}, err
			}
		}
		return cfg.Snapshotter.Snapshot(ctx, d.html, layers)
	}

	page, err := d.pages.Page(n)
	if err != nil {
		return surface.Page{}, err
	}
	if snap == nil {
		return page, nil
	}
	return export.RenderPage(cfg.Compositor, page, snap, n)
}

// PageEncoded returns the stored PNG of page n of a paged document.
func (s *Session) PageEncoded(n int) (surface.Encoded, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return surface.Encoded{}, ErrNoDocument
	}
	if doc.flattened() {
		return surface.Encoded{}, fmt.Errorf("%w: %d (flattened document)", surface.ErrPageRange, n)
	}
	return doc.pages.Encoded(n)
}

// LoadDocument converts and rasterizes an upload, then replaces the current
// document. On any error the previous document, page and placements are
// left exactly as they were. Placements are kept across loads.
func (s *Session) LoadDocument(ctx context.Context, name string, data []byte) error {
	kind, err := DetectKind(name)
	if err != nil {
		return err
	}

	start := time.Now()
	doc, err := s.build(ctx, name, kind, data)
	if err != nil {
		s.log.Error("document load failed", "name", name, "error", err)
		return fmt.Errorf("%w: %w", ErrConversionFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.current = 1
	if doc.flattened() {
		s.current = stamp.FlattenedPage
	}
	s.ctrl.PointerUp()
	s.log.Info("document loaded", "name", name, "type", kind, "pages", doc.pageCount(), "flattened", doc.flattened(), "took", time.Since(start))
	return nil
}

// build runs outside the session lock; conversions can take seconds.
func (s *Session) build(ctx context.Context, name string, kind Kind, data []byte) (*document, error) {
	pdf := data
	if kind == KindDOCX {
		if s.cfg.DocxMode == "html" {
			if s.cfg.HTMLConverter == nil {
				return nil, fmt.Errorf("no html converter configured")
			}
			html, err := s.cfg.HTMLConverter.ToHTML(ctx, name, data)
			if err != nil {
				return nil, err
			}
			return &document{name: name, kind: kind, html: html}, nil
		}
		if s.cfg.PDFConverter == nil {
			return nil, fmt.Errorf("no pdf converter configured")
		}
		var err error
		if pdf, err = s.cfg.PDFConverter.ToPDF(ctx, name, data); err != nil {
			return nil, err
		}
	}

	if s.cfg.Rasterizer == nil {
		return nil, fmt.Errorf("no rasterizer configured")
	}
	pages, err := s.cfg.Rasterizer.Rasterize(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("rasterize: no pages")
	}
	return &document{name: name, kind: kind, pages: surface.NewDocument(pages)}, nil
}

// ── Page groups ──

// GroupSize is the number of pages per catalogue group.
const GroupSize = 10

// PageGroup is a contiguous run of page numbers, both ends inclusive.
type PageGroup struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Groups splits pages 1..count into runs of size.
func Groups(count, size int) []PageGroup {
	if count <= 0 || size <= 0 {
		return nil
	}
	groups := make([]PageGroup, 0, (count+size-1)/size)
	for first := 1; first <= count; first += size {
		groups = append(groups, PageGroup{First: first, Last: min(first+size-1, count)})
	}
	return groups
}
