// pdf.go — Raster sequence → PDF via pdfcpu image import.
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/xob0t/GoStamp/pkg/surface"
)

// ErrNoPages is returned when asked to encode an empty sequence.
var ErrNoPages = errors.New("encoder: no pages")

// PDF writes one page per raster. Each page is exactly raster-width by
// raster-height points and the image fills it.
type PDF struct {
	JPEGQuality int
}

func (*PDF) ContentType() string { return "application/pdf" }
func (*PDF) Ext() string         { return ".pdf" }

// Encode builds the PDF in memory and writes it to w.
func (e *PDF) Encode(w io.Writer, pages []surface.Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	return encodeBuffered(w, func(out io.Writer) error {
		conf := model.NewDefaultConfiguration()

		parts := make([]io.ReadSeeker, 0, len(pages))
		for _, p := range pages {
			part, err := e.page(p, conf)
			if err != nil {
				return fmt.Errorf("pdf page %d: %w", p.Index, err)
			}
			parts = append(parts, bytes.NewReader(part))
		}

		if len(parts) == 1 {
			_, err := io.Copy(out, parts[0])
			return err
		}
		if err := api.MergeRaw(parts, out, false, conf); err != nil {
			return fmt.Errorf("merge pdf pages: %w", err)
		}
		return nil
	})
}

// page renders one raster as a single-page PDF sized to the raster.
func (e *PDF) page(p surface.Page, conf *model.Configuration) ([]byte, error) {
	img, err := e.imageBytes(p.Image)
	if err != nil {
		return nil, err
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full
	imp.PageDim = &types.Dim{Width: float64(p.Width), Height: float64(p.Height)}
	imp.UserDim = true

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(img)}, imp, conf); err != nil {
		return nil, fmt.Errorf("import image: %w", err)
	}
	return out.Bytes(), nil
}

func (e *PDF) imageBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if e.JPEGQuality > 0 {
		if err := jpeg.Encode(&buf, onWhite(img), &jpeg.Options{Quality: min(e.JPEGQuality, 100)}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
		return buf.Bytes(), nil
	}
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// onWhite flattens img onto a white page, for formats without alpha.
func onWhite(img image.Image) *image.RGBA {
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
	return flat
}
