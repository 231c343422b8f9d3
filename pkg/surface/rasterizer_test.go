package surface

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"os/exec"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// imagePDF builds a PDF with one page per size, each w×h points.
func imagePDF(t *testing.T, sizes ...[2]int) []byte {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	var parts []io.ReadSeeker
	for _, sz := range sizes {
		var img bytes.Buffer
		if err := png.Encode(&img, solid(sz[0], sz[1], color.RGBA{0, 0, 255, 255})); err != nil {
			t.Fatal(err)
		}
		imp := pdfcpu.DefaultImportConfig()
		imp.Pos = types.Full
		imp.PageDim = &types.Dim{Width: float64(sz[0]), Height: float64(sz[1])}
		imp.UserDim = true

		var out bytes.Buffer
		if err := api.ImportImages(nil, &out, []io.Reader{&img}, imp, conf); err != nil {
			t.Fatal(err)
		}
		parts = append(parts, bytes.NewReader(out.Bytes()))
	}
	if len(parts) == 1 {
		b, _ := io.ReadAll(parts[0])
		return b
	}
	var merged bytes.Buffer
	if err := api.MergeRaw(parts, &merged, false, conf); err != nil {
		t.Fatal(err)
	}
	return merged.Bytes()
}

func TestRasterizeRejectsInvalidPDF(t *testing.T) {
	r := NewPDFRasterizer(RasterConfig{Pdftoppm: "/nonexistent/pdftoppm"})
	if _, err := r.Rasterize(context.Background(), []byte("%PDF-1.4 garbage")); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}

func TestRasterizeScale(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	pdf := imagePDF(t, [2]int{100, 50}, [2]int{60, 60})
	r := NewPDFRasterizer(RasterConfig{})
	if r.DPI() != 144 {
		t.Fatalf("DPI = %d", r.DPI())
	}

	pages, err := r.Rasterize(context.Background(), pdf)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d", len(pages))
	}
	if pages[0].Index != 1 || pages[0].Width != 200 || pages[0].Height != 100 {
		t.Errorf("page 1 = %+v", pages[0])
	}
	if pages[1].Index != 2 || pages[1].Width != 120 || pages[1].Height != 120 {
		t.Errorf("page 2 = %+v", pages[1])
	}
}

func TestOfficeConverterMissingBinary(t *testing.T) {
	c := NewOfficeConverter(OfficeConfig{Soffice: "/nonexistent/soffice"})
	_, err := c.ToPDF(context.Background(), "a.docx", []byte("x"))
	if _, ok := err.(*ConvertError); !ok {
		t.Fatalf("err = %v, want *ConvertError", err)
	}
}
