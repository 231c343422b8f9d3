// Package stamp holds the in-memory stamp model: the library of uploaded stamp
// images and the ordered store of their placements on document pages.
package stamp

import "math"

// FlattenedPage is the page value used by placements on documents without
// discrete pages (a single continuous surface).
const FlattenedPage = 0

// ── Library types ──

// Asset is a reusable stamp image with its default presentation settings.
// Data is never modified after upload.
type Asset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ContentType string  `json:"contentType"`
	Size        float64 `json:"size"`     // edge of the square bounding box, page pixels
	Rotation    float64 `json:"rotation"` // degrees, clockwise, [0,360)
	Data        []byte  `json:"-"`
}

// AssetUpdate carries optional edits to an asset's defaults. Nil fields are left as is.
type AssetUpdate struct {
	Size     *float64 `json:"size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// ── Placement types ──

// Placement is one instance of a library stamp on a page.
// X/Y is the un-rotated top-left corner of the square bounding box in the
// pixel space of the target page raster. Size and rotation never move it.
type Placement struct {
	ID        string  `json:"id"`
	LibraryID string  `json:"libraryId"`
	Page      int     `json:"page"` // 1-based, or FlattenedPage
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Rotation  float64 `json:"rotation"`
}

// ── Limits ──

// Limits bounds and seeds stamp geometry.
type Limits struct {
	DefaultSize float64  `json:"defaultSize" yaml:"default_size"`
	MinSize     float64  `json:"minSize" yaml:"min_size"`
	MaxSize     float64  `json:"maxSize" yaml:"max_size"`
	DefaultX    *float64 `json:"defaultX" yaml:"default_x"` // nil means 50
	DefaultY    *float64 `json:"defaultY" yaml:"default_y"` // nil means 50
}

// DefaultLimits returns the stock limits: new stamps are 100px, sizes are
// kept in [50,300] and new placements land at (50,50).
func DefaultLimits() Limits {
	return Limits{
		DefaultSize: 100,
		MinSize:     50,
		MaxSize:     300,
		DefaultX:    coord(50),
		DefaultY:    coord(50),
	}
}

func coord(v float64) *float64 { return &v }

// DefaultPosition is where new placements land.
func (l Limits) DefaultPosition() (x, y float64) {
	x, y = 50, 50
	if l.DefaultX != nil {
		x = *l.DefaultX
	}
	if l.DefaultY != nil {
		y = *l.DefaultY
	}
	return x, y
}

func (l *Limits) defaults() {
	d := DefaultLimits()
	if l.MinSize <= 0 {
		l.MinSize = d.MinSize
	}
	if l.MaxSize < l.MinSize {
		l.MaxSize = max(d.MaxSize, l.MinSize)
	}
	if l.DefaultSize <= 0 {
		l.DefaultSize = d.DefaultSize
	}
	l.DefaultSize = l.ClampSize(l.DefaultSize)
	if l.DefaultX == nil {
		l.DefaultX = d.DefaultX
	}
	if l.DefaultY == nil {
		l.DefaultY = d.DefaultY
	}
}

// ClampSize keeps a stamp edge length inside [MinSize, MaxSize].
func (l Limits) ClampSize(size float64) float64 {
	if math.IsNaN(size) {
		return l.MinSize
	}
	return math.Min(math.Max(size, l.MinSize), l.MaxSize)
}

// NormalizeRotation wraps degrees into [0,360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// -1e-15 wraps to 360 after the addition above.
	if r >= 360 {
		r = 0
	}
	return r
}
