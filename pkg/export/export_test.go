package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/stamp"
	"github.com/xob0t/GoStamp/pkg/surface"
)

// fakePages serves solid white pages; pages listed in broken fail to load.
type fakePages struct {
	n      int
	broken map[int]bool
}

func (f fakePages) PageCount() int { return f.n }

func (f fakePages) Page(n int) (surface.Page, error) {
	if f.broken[n] {
		return surface.Page{}, errors.New("corrupt raster")
	}
	return surface.NewPage(n, compositor.NewSolidImage(400, 300, color.White)), nil
}

func pngOf(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, compositor.NewSolidImage(10, 10, c)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newModel() (*stamp.Library, *stamp.Store) {
	lib := stamp.NewLibrary(stamp.DefaultLimits())
	return lib, stamp.NewStore(lib)
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestPagedExportPlacesStampAtPosition(t *testing.T) {
	lib, store := newModel()
	a := lib.AddAsset("seal.png", "image/png", pngOf(t, color.RGBA{255, 0, 0, 255}))
	p, _ := store.Add(a.ID, 1)
	store.UpdatePosition(p.ID, 120, 80)

	src := PagedSource{Pages: fakePages{n: 2}, Compositor: compositor.New(compositor.Options{})}
	pages, err := src.Render(context.Background(), stamp.NewSnapshot(lib, store))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d", len(pages))
	}

	first := pages[0].Image
	for _, pt := range []image.Point{{121, 81}, {170, 130}, {218, 178}} {
		if c := rgba(first, pt.X, pt.Y); c.G > 45 {
			t.Errorf("pixel %v = %v, want stamped", pt, c)
		}
	}
	for _, pt := range []image.Point{{118, 78}, {221, 181}, {60, 60}} {
		if c := rgba(first, pt.X, pt.Y); c != (color.RGBA{255, 255, 255, 255}) {
			t.Errorf("pixel %v = %v, want untouched", pt, c)
		}
	}
	// Page 2 had no placements.
	if c := rgba(pages[1].Image, 170, 130); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("page 2 pixel = %v", c)
	}
}

func TestPagedExportLaterPlacementOnTop(t *testing.T) {
	lib, store := newModel()
	red := lib.AddAsset("red.png", "image/png", pngOf(t, color.RGBA{255, 0, 0, 255}))
	blue := lib.AddAsset("blue.png", "image/png", pngOf(t, color.RGBA{0, 0, 255, 255}))
	p1, _ := store.Add(red.ID, 1)
	p2, _ := store.Add(blue.ID, 1)
	store.UpdatePosition(p1.ID, 100, 100)
	store.UpdatePosition(p2.ID, 150, 150)

	// Multiply commutes on an opaque page, so stacking order is only
	// visible with normal blending.
	c := compositor.New(compositor.Options{Opacity: 1, Blend: compositor.BlendNormal})
	pages, err := PagedSource{Pages: fakePages{n: 1}, Compositor: c}.Render(context.Background(), stamp.NewSnapshot(lib, store))
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba(pages[0].Image, 175, 175); got != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("overlap = %v, want blue on top", got)
	}
	if got := rgba(pages[0].Image, 120, 120); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("p1-only region = %v, want red", got)
	}
}

func TestOrphansAreSkipped(t *testing.T) {
	lib, store := newModel()
	a := lib.AddAsset("seal.png", "image/png", pngOf(t, color.Black))
	store.Add(a.ID, 1)

	// A snapshot against a library that lacks the asset orphans the placement.
	snap := stamp.NewSnapshot(stamp.NewLibrary(stamp.DefaultLimits()), store)

	var out bytes.Buffer
	src := PagedSource{Pages: fakePages{n: 1}, Compositor: compositor.New(compositor.Options{})}
	res, err := Pipeline{}.Export(context.Background(), src, snap, encoder.PNG{}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 1 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	img, err := png.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if c := rgba(img, 100, 100); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("orphan was drawn: %v", c)
	}
}

func TestExportAbortsWithoutOutput(t *testing.T) {
	lib, store := newModel()
	good := lib.AddAsset("seal.png", "image/png", pngOf(t, color.Black))
	store.Add(good.ID, 1)
	c := compositor.New(compositor.Options{})

	tests := []struct {
		name  string
		src   Source
		setup func()
	}{
		{"bad page", PagedSource{Pages: fakePages{n: 3, broken: map[int]bool{2: true}}, Compositor: c}, nil},
		{"no document", PagedSource{Compositor: c}, nil},
		{"bad stamp", PagedSource{Pages: fakePages{n: 1}, Compositor: c}, func() {
			bad := lib.AddAsset("bad.png", "image/png", []byte("not an image"))
			store.Add(bad.ID, 1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			var out bytes.Buffer
			_, err := Pipeline{}.Export(context.Background(), tt.src, stamp.NewSnapshot(lib, store), &encoder.PDF{}, &out)
			if err == nil {
				t.Fatal("expected error")
			}
			if out.Len() != 0 {
				t.Fatalf("wrote %d bytes on failure", out.Len())
			}
		})
	}
}

func TestExportHonoursCancellation(t *testing.T) {
	lib, store := newModel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := PagedSource{Pages: fakePages{n: 2}, Compositor: compositor.New(compositor.Options{})}
	if _, err := src.Render(ctx, stamp.NewSnapshot(lib, store)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

// recordingSnapshotter captures what it was asked to draw.
type recordingSnapshotter struct {
	html   string
	layers []compositor.Layer
}

func (r *recordingSnapshotter) Snapshot(_ context.Context, html string, layers []compositor.Layer) (surface.Page, error) {
	r.html, r.layers = html, layers
	return surface.NewPage(stamp.FlattenedPage, compositor.NewSolidImage(1200, 600, color.White)), nil
}

func TestFlattenedSourceUsesSentinelPage(t *testing.T) {
	lib, store := newModel()
	a := lib.AddAsset("seal.png", "image/png", pngOf(t, color.Black))
	flat, _ := store.Add(a.ID, stamp.FlattenedPage)
	store.Add(a.ID, 1) // not part of a flattened document
	store.Resize(flat.ID, 150)

	rec := &recordingSnapshotter{}
	pages, err := FlattenedSource{HTML: "<p>doc</p>", Snapshotter: rec}.Render(context.Background(), stamp.NewSnapshot(lib, store))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Width != 1200 {
		t.Fatalf("pages = %+v", pages)
	}
	if rec.html != "<p>doc</p>" || len(rec.layers) != 1 || rec.layers[0].Size != 150 {
		t.Fatalf("snapshotter got html=%q layers=%+v", rec.html, rec.layers)
	}
}
