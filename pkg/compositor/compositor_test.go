package compositor

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// twoTone is a 2×1 image: left pixel l, right pixel r.
func twoTone(l, r color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, l)
	img.SetRGBA(1, 0, r)
	return img
}

func near(got, want uint8) bool {
	d := int(got) - int(want)
	return d >= -2 && d <= 2
}

func assertRGB(t *testing.T, img *image.RGBA, x, y int, r, g, b uint8) {
	t.Helper()
	c := img.RGBAAt(x, y)
	if !near(c.R, r) || !near(c.G, g) || !near(c.B, b) {
		t.Errorf("pixel (%d,%d) = %v, want ~(%d,%d,%d)", x, y, c, r, g, b)
	}
}

func TestCompositeNoLayersIsPixelCopy(t *testing.T) {
	page := NewSolidImage(40, 30, color.RGBA{10, 20, 30, 255})
	page.SetRGBA(5, 5, red)

	out := New(Options{}).Composite(page, nil)
	if out.Bounds() != page.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), page.Bounds())
	}
	if !bytes.Equal(out.Pix, page.Pix) {
		t.Fatal("output differs from input page")
	}
	if out == page {
		t.Fatal("Composite returned the input page")
	}
}

func TestCompositeIsDeterministic(t *testing.T) {
	page := NewSolidImage(300, 300, white)
	layers := []Layer{
		{Image: twoTone(red, blue), X: 40, Y: 60, Size: 120, Rotation: 33},
		{Image: twoTone(blue, red), X: 90, Y: 80, Size: 80, Rotation: 300},
	}
	c := New(Options{})
	a := c.Composite(page, layers)
	b := c.Composite(page, layers)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("two composites of the same input differ")
	}
}

func TestUnrotatedStampBox(t *testing.T) {
	stampImg := NewSolidImage(10, 10, red)
	page := NewSolidImage(400, 300, white)

	out := New(Options{}).Composite(page, []Layer{{Image: stampImg, X: 120, Y: 80, Size: 100}})

	// Multiply red onto white at 0.85: R stays, G/B drop to 0.15.
	assertRGB(t, out, 121, 81, 255, 38, 38)
	assertRGB(t, out, 218, 178, 255, 38, 38)
	assertRGB(t, out, 170, 130, 255, 38, 38)
	assertRGB(t, out, 118, 78, 255, 255, 255)
	assertRGB(t, out, 221, 181, 255, 255, 255)
	assertRGB(t, out, 170, 200, 255, 255, 255)
}

func TestRotationIsClockwiseAboutCenter(t *testing.T) {
	page := NewSolidImage(100, 100, white)
	img := twoTone(red, blue)
	c := New(Options{Interpolation: "nearest"})

	out := c.Composite(page, []Layer{{Image: img, Size: 100, Rotation: 180}})
	assertRGB(t, out, 10, 50, 38, 38, 255)
	assertRGB(t, out, 90, 50, 255, 38, 38)

	// A quarter turn clockwise moves the left half to the top.
	out = c.Composite(page, []Layer{{Image: img, Size: 100, Rotation: 90}})
	assertRGB(t, out, 50, 10, 255, 38, 38)
	assertRGB(t, out, 50, 90, 38, 38, 255)
}

func TestRotatedCornersStayBlank(t *testing.T) {
	page := NewSolidImage(200, 200, white)
	out := New(Options{}).Composite(page, []Layer{{Image: NewSolidImage(4, 4, red), X: 50, Y: 50, Size: 100, Rotation: 45}})

	// The box corner is outside the rotated square; its center is inside.
	assertRGB(t, out, 52, 52, 255, 255, 255)
	assertRGB(t, out, 100, 100, 255, 38, 38)
	// The rotated diamond reaches past the un-rotated box edge.
	assertRGB(t, out, 100, 45, 255, 38, 38)
}

func TestLaterLayersDrawOnTop(t *testing.T) {
	page := NewSolidImage(100, 100, white)
	c := New(Options{Opacity: 1, Blend: BlendNormal})

	out := c.Composite(page, []Layer{
		{Image: NewSolidImage(4, 4, red), X: 0, Y: 0, Size: 60},
		{Image: NewSolidImage(4, 4, blue), X: 30, Y: 30, Size: 60},
	})
	assertRGB(t, out, 10, 10, 255, 0, 0)
	assertRGB(t, out, 45, 45, 0, 0, 255)
	assertRGB(t, out, 80, 80, 0, 0, 255)
}

func TestMultiplyCommutesOnOpaquePage(t *testing.T) {
	page := NewSolidImage(50, 50, white)
	c := New(Options{})
	r := Layer{Image: NewSolidImage(4, 4, red), Size: 50}
	b := Layer{Image: NewSolidImage(4, 4, blue), Size: 50}

	rb := c.Composite(page, []Layer{r, b}).RGBAAt(25, 25)
	br := c.Composite(page, []Layer{b, r}).RGBAAt(25, 25)
	// Cb·(1-αs+αs·Cs1)·(1-αs+αs·Cs2) for both orders.
	if !near(rb.R, br.R) || !near(rb.G, br.G) || !near(rb.B, br.B) {
		t.Fatalf("red-then-blue = %v, blue-then-red = %v, want equal", rb, br)
	}
	assertRGB(t, c.Composite(page, []Layer{r, b}), 25, 25, 38, 6, 38)
}

func TestNormalBlendOrderMatters(t *testing.T) {
	page := NewSolidImage(50, 50, white)
	c := New(Options{Blend: BlendNormal})
	r := Layer{Image: NewSolidImage(4, 4, red), Size: 50}
	b := Layer{Image: NewSolidImage(4, 4, blue), Size: 50}

	rb := c.Composite(page, []Layer{r, b})
	br := c.Composite(page, []Layer{b, r})
	assertRGB(t, rb, 25, 25, 38, 6, 222)
	assertRGB(t, br, 25, 25, 222, 6, 38)
}

func TestTransparentStampPixelsLeavePage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(1, 0, red)
	page := NewSolidImage(100, 100, color.RGBA{0, 128, 0, 255})

	out := New(Options{Interpolation: "nearest"}).Composite(page, []Layer{{Image: img, Size: 100}})
	assertRGB(t, out, 20, 50, 0, 128, 0)
	// Multiply red over green: R=0·1, G=128·0 → both dark, mixed with 15% page.
	assertRGB(t, out, 80, 50, 0, 19, 0)
}

func TestStampPartlyOffPage(t *testing.T) {
	page := NewSolidImage(100, 100, white)
	out := New(Options{}).Composite(page, []Layer{
		{Image: NewSolidImage(4, 4, red), X: -50, Y: 80, Size: 100},
		{Image: NewSolidImage(4, 4, red), X: 500, Y: 500, Size: 100},
	})
	assertRGB(t, out, 0, 90, 255, 38, 38)
	assertRGB(t, out, 60, 90, 255, 255, 255)
}

func TestDegenerateLayersAreIgnored(t *testing.T) {
	page := NewSolidImage(20, 20, white)
	out := New(Options{}).Composite(page, []Layer{
		{Image: nil, Size: 10},
		{Image: NewSolidImage(2, 2, red), Size: 0},
		{Image: image.NewRGBA(image.Rect(0, 0, 0, 0)), Size: 10},
	})
	if !bytes.Equal(out.Pix, page.Pix) {
		t.Fatal("degenerate layers changed the page")
	}
}

func TestOptionsDefaults(t *testing.T) {
	got := New(Options{Opacity: 7}).Options()
	if got != DefaultOptions() {
		t.Fatalf("options = %+v, want %+v", got, DefaultOptions())
	}
	if _, err := ParseBlendMode("screen"); err == nil {
		t.Fatal("expected error for unknown blend mode")
	}
	if m, _ := ParseBlendMode(""); m != BlendMultiply {
		t.Fatalf("empty blend mode = %q", m)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"", white, true},
		{"#ff0000", red, true},
		{"#00f", blue, true},
		{"black", color.RGBA{0, 0, 0, 255}, true},
		{"#00000000", color.RGBA{}, true},
		{"#12345", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
