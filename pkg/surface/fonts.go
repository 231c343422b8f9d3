// fonts.go - Font management with custom TTF support and embedded fallback fonts.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to the Go
// Regular/Bold fonts when no custom font is configured or it fails to load.
package surface

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontManager hands out cached font faces by size and weight.
type FontManager struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewFontManager loads customPath for regular text, falling back to the
// embedded Go font. Bold text always uses Go Bold.
func NewFontManager(customPath string, log *slog.Logger) (*FontManager, error) {
	if log == nil {
		log = slog.Default()
	}

	var data []byte
	if customPath != "" {
		var err error
		data, err = os.ReadFile(customPath)
		if err != nil {
			log.Warn("custom font unavailable, using default", "path", customPath, "error", err)
			data = nil
		}
	}
	if data == nil {
		data = goregular.TTF
	}

	regular, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	return &FontManager{
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// Face returns a face at size pixels (72 dpi, so points equal pixels).
func (fm *FontManager) Face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	if f, ok := fm.faces[key]; ok {
		return f, nil
	}

	src := fm.regular
	if bold {
		src = fm.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	fm.faces[key] = face
	return face, nil
}
