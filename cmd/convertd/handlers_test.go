package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xob0t/GoStamp/pkg/surface"
)

type stubPDF struct{ err error }

func (s stubPDF) ToPDF(_ context.Context, name string, _ []byte) ([]byte, error) {
	if s.err != nil {
		return nil, &surface.ConvertError{Backend: "office", Name: name, Err: s.err}
	}
	return []byte("%PDF-1.7 stub"), nil
}

func newTestService(t *testing.T, pdf surface.PDFConverter) *surface.RemoteConverter {
	t.Helper()
	ts := httptest.NewServer(newRouter(handlerConfig{
		PDF:    pdf,
		HTML:   surface.NewDocxConverter(),
		Origin: "http://localhost:5173",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(ts.Close)
	return surface.NewRemoteConverter(surface.RemoteConfig{BaseURL: ts.URL})
}

func docx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestConvertDocxRoundTrip(t *testing.T) {
	rc := newTestService(t, stubPDF{})
	pdf, err := rc.ToPDF(context.Background(), "letter.docx", docx(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if string(pdf) != "%PDF-1.7 stub" {
		t.Fatalf("pdf = %q", pdf)
	}
}

func TestConvertDocxFailure(t *testing.T) {
	rc := newTestService(t, stubPDF{err: errors.New("soffice exited 1")})
	_, err := rc.ToPDF(context.Background(), "letter.docx", docx(t, ""))
	if err == nil || !strings.Contains(err.Error(), "soffice exited 1") || !strings.Contains(err.Error(), "HTTP 500") {
		t.Fatalf("err = %v", err)
	}
}

func TestUploadDocxHTML(t *testing.T) {
	rc := newTestService(t, stubPDF{})
	html, err := rc.ToHTML(context.Background(), "letter.docx",
		docx(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Dear client</w:t></w:r></w:p>`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<strong>Dear client</strong>") {
		t.Fatalf("html = %q", html)
	}
}

func TestRejectsNonDocx(t *testing.T) {
	rc := newTestService(t, stubPDF{})
	_, err := rc.ToHTML(context.Background(), "scan.pdf", []byte("%PDF"))
	if err == nil || !strings.Contains(err.Error(), "Only .docx files are supported.") {
		t.Fatalf("err = %v", err)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(handlerConfig{PDF: stubPDF{}, HTML: surface.NewDocxConverter(), Origin: "http://localhost:5173"})
	req := httptest.NewRequest(http.MethodOptions, "/convert-docx", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}
