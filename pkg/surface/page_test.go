package surface

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestEncodeDecodeKeepsDimensions(t *testing.T) {
	p := NewPage(3, solid(120, 80, color.RGBA{200, 10, 10, 255}))
	if p.Width != 120 || p.Height != 80 {
		t.Fatalf("dims = %dx%d", p.Width, p.Height)
	}

	e, err := Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 120 || got.Height != 80 || got.Index != 3 {
		t.Fatalf("decoded page = %d %dx%d", got.Index, got.Width, got.Height)
	}
	r, g, b, _ := got.Image.At(60, 40).RGBA()
	if r>>8 != 200 || g>>8 != 10 || b>>8 != 10 {
		t.Fatalf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestDocumentPages(t *testing.T) {
	var pages []Encoded
	for i := 1; i <= 3; i++ {
		e, err := Encode(NewPage(i, solid(10*i, 10, color.RGBA{A: 255})))
		if err != nil {
			t.Fatal(err)
		}
		pages = append(pages, e)
	}
	doc := NewDocument(pages)

	if doc.PageCount() != 3 {
		t.Fatalf("PageCount = %d", doc.PageCount())
	}
	for _, n := range []int{2, 2, 3, 1} {
		p, err := doc.Page(n)
		if err != nil {
			t.Fatalf("Page(%d): %v", n, err)
		}
		if p.Index != n || p.Width != 10*n {
			t.Fatalf("Page(%d) = index %d width %d", n, p.Index, p.Width)
		}
	}
	for _, n := range []int{0, 4, -1} {
		if _, err := doc.Page(n); !errors.Is(err, ErrPageRange) {
			t.Errorf("Page(%d) err = %v, want ErrPageRange", n, err)
		}
	}
}

func TestDocumentCorruptPage(t *testing.T) {
	doc := NewDocument([]Encoded{{Index: 1, Data: []byte("not a png")}})
	if _, err := doc.Page(1); err == nil {
		t.Fatal("expected decode error")
	}
}
