// color.go — Color parsing for configured page and text colors.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
)

// ParseColor parses "#rrggbb", "#rrggbbaa", "#rgb", "white", "black" or
// "transparent". Empty string is white.
func ParseColor(s string) (color.RGBA, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white":
		return color.RGBA{255, 255, 255, 255}, nil
	case "black":
		return color.RGBA{0, 0, 0, 255}, nil
	case "transparent":
		return color.RGBA{}, nil
	}

	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #rgb, #rrggbb or #rrggbbaa", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

// MustColor is ParseColor with a white fallback on error.
func MustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return c
}

// NewSolidImage creates a uniform solid-color canvas.
func NewSolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}
