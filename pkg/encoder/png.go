// png.go — PNG and ZIP-of-PNG writers.
package encoder

import (
	"archive/zip"
	"fmt"
	"image/png"
	"io"

	"github.com/xob0t/GoStamp/pkg/surface"
)

// PNG writes a single page as a PNG image.
type PNG struct{}

func (PNG) ContentType() string { return "image/png" }
func (PNG) Ext() string         { return ".png" }

// Encode writes the only page. Multi-page documents need .pdf or .zip.
func (PNG) Encode(w io.Writer, pages []surface.Page) error {
	if err := singlePage("png", pages); err != nil {
		return err
	}
	return encodeBuffered(w, func(out io.Writer) error {
		if err := png.Encode(out, pages[0].Image); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
		return nil
	})
}

func singlePage(format string, pages []surface.Page) error {
	switch len(pages) {
	case 0:
		return ErrNoPages
	case 1:
		return nil
	default:
		return fmt.Errorf("%s holds one page, got %d: use .pdf or .zip", format, len(pages))
	}
}

// ZIP writes page-001.png, page-002.png, ... in page order.
type ZIP struct{}

func (ZIP) ContentType() string { return "application/zip" }
func (ZIP) Ext() string         { return ".zip" }

// Encode writes every page as a PNG entry.
func (ZIP) Encode(w io.Writer, pages []surface.Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	return encodeBuffered(w, func(out io.Writer) error {
		zw := zip.NewWriter(out)
		for i, p := range pages {
			f, err := zw.Create(fmt.Sprintf("page-%03d.png", i+1))
			if err != nil {
				return fmt.Errorf("zip page %d: %w", i+1, err)
			}
			if err := png.Encode(f, p.Image); err != nil {
				return fmt.Errorf("encode page %d: %w", i+1, err)
			}
		}
		return zw.Close()
	})
}
