// Package surface provides page rasters for loaded documents: the paged
// provider fed by a PDF rasterizer, the DOCX converters, and the snapshotters
// that turn a flattened (non-paginated) document into a single raster.
package surface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// ErrPageRange is returned for a page number outside 1..PageCount.
var ErrPageRange = errors.New("surface: page out of range")

// Page is one decoded page raster. Width and Height equal the image bounds.
type Page struct {
	Index  int
	Image  image.Image
	Width  int
	Height int
}

// NewPage wraps a decoded raster.
func NewPage(index int, img image.Image) Page {
	b := img.Bounds()
	return Page{Index: index, Image: img, Width: b.Dx(), Height: b.Dy()}
}

// Encoded is a page raster kept as PNG bytes.
type Encoded struct {
	Index  int    `json:"index"`
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Encode stores a page as PNG.
func Encode(p Page) (Encoded, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image); err != nil {
		return Encoded{}, fmt.Errorf("encode page %d: %w", p.Index, err)
	}
	return Encoded{Index: p.Index, Data: buf.Bytes(), Width: p.Width, Height: p.Height}, nil
}

// Decode turns the stored bytes back into a raster.
func (e Encoded) Decode() (Page, error) {
	img, _, err := image.Decode(bytes.NewReader(e.Data))
	if err != nil {
		return Page{}, fmt.Errorf("decode page %d: %w", e.Index, err)
	}
	return NewPage(e.Index, img), nil
}

// Provider serves page rasters by 1-based page number.
type Provider interface {
	PageCount() int
	Page(n int) (Page, error)
}

// Document is the Provider for a rasterized paged document. Pages are kept
// encoded and decoded on demand; the last decoded page is cached.
type Document struct {
	pages []Encoded

	mu     sync.Mutex
	cached Page
}

// NewDocument creates a provider over rasterized pages, ordered by page.
func NewDocument(pages []Encoded) *Document {
	return &Document{pages: pages}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Encoded returns the stored PNG for page n.
func (d *Document) Encoded(n int) (Encoded, error) {
	if n < 1 || n > len(d.pages) {
		return Encoded{}, fmt.Errorf("%w: %d of %d", ErrPageRange, n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Page decodes page n.
func (d *Document) Page(n int) (Page, error) {
	e, err := d.Encoded(n)
	if err != nil {
		return Page{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached.Image != nil && d.cached.Index == n {
		return d.cached, nil
	}
	p, err := e.Decode()
	if err != nil {
		return Page{}, err
	}
	p.Index = n
	d.cached = p
	return p, nil
}
