// rasterizer.go — PDF → page rasters via pdftoppm, validated with pdfcpu.
package surface

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Rasterizer turns PDF bytes into ordered page rasters.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]Encoded, error)
}

// RasterConfig configures PDFRasterizer.
type RasterConfig struct {
	Pdftoppm string  // binary path, default "pdftoppm"
	Scale    float64 // raster pixels per PDF point, default 2.0
	Logger   *slog.Logger
}

func (c *RasterConfig) defaults() {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Scale <= 0 {
		c.Scale = 2.0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// PDFRasterizer renders every page with poppler's pdftoppm at Scale×72 dpi.
type PDFRasterizer struct {
	cfg RasterConfig
}

// NewPDFRasterizer creates a rasterizer. Zero config fields take defaults.
func NewPDFRasterizer(cfg RasterConfig) *PDFRasterizer {
	cfg.defaults()
	return &PDFRasterizer{cfg: cfg}
}

// DPI is the resolution passed to pdftoppm.
func (r *PDFRasterizer) DPI() int {
	return int(math.Round(r.cfg.Scale * 72))
}

// Rasterize validates the PDF, renders all pages and returns them in order.
func (r *PDFRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]Encoded, error) {
	conf := model.NewDefaultConfiguration()
	count, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	dir, err := os.MkdirTemp("", "gostamp-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.cfg.Pdftoppm,
		"-png",
		"-r", fmt.Sprintf("%d", r.DPI()),
		in,
		filepath.Join(dir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pages, err := collectPages(dir)
	if err != nil {
		return nil, err
	}
	if len(pages) != count {
		return nil, fmt.Errorf("pdftoppm produced %d pages, pdf has %d", len(pages), count)
	}

	r.cfg.Logger.Debug("rasterized pdf", "pages", count, "dpi", r.DPI())
	return pages, nil
}

// collectPages reads page-N.png outputs (N may be zero-padded) in page order.
func collectPages(dir string) ([]Encoded, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read raster dir: %w", err)
	}

	var pages []Encoded
	for _, entry := range entries {
		var num int
		if _, err := fmt.Sscanf(entry.Name(), "page-%d.png", &num); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", num, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", num, err)
		}
		pages = append(pages, Encoded{Index: num, Data: data, Width: cfg.Width, Height: cfg.Height})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}
