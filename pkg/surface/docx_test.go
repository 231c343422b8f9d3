package surface

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const sampleDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Contract</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Signed by </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>both parties</w:t></w:r><w:r><w:rPr><w:i w:val="0"/></w:rPr><w:t>.</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>first</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>second</w:t></w:r></w:p>
<w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>
<w:p></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>A1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>B1</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`

func TestDocxToHTML(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   sampleDocument,
	})

	out, err := NewDocxConverter().ToHTML(context.Background(), "contract.docx", data)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<h1>Contract</h1>",
		"<p>Signed by <strong>both parties</strong>.</p>",
		"<ul><li>first</li><li>second</li></ul>",
		"line one<br/>line two",
		"<td><p>A1</p></td><td><p>B1</p></td>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<p></p>") {
		t.Errorf("empty paragraph kept:\n%s", out)
	}
}

func TestDocxErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("plain text")},
		{"no document part", buildDocx(t, map[string]string{"word/styles.xml": "<x/>"})},
		{"zip slip", buildDocx(t, map[string]string{"../evil.xml": "<x/>", "word/document.xml": sampleDocument})},
		{"broken xml", buildDocx(t, map[string]string{"word/document.xml": `<w:document xmlns:w="x"><w:body>`})},
	}
	c := NewDocxConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ToHTML(context.Background(), "x.docx", tt.data)
			var ce *ConvertError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConvertError", err)
			}
			if ce.Backend != "builtin" || ce.Name != "x.docx" {
				t.Fatalf("ConvertError = %+v", ce)
			}
		})
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1": 1, "heading3": 3, "Title": 1, "Subtitle": 2,
		"Titre2": 2, "Heading7": 0, "Normal": 0, "": 0,
	}
	for style, want := range tests {
		if got := headingLevel(style); got != want {
			t.Errorf("headingLevel(%q) = %d, want %d", style, got, want)
		}
	}
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()
	out := s.HTML(`<p onclick="x()">hi<script>alert(1)</script></p><img src="data:image/png;base64,iVBORw0KGgo=">`)
	if strings.Contains(out, "script") || strings.Contains(out, "onclick") {
		t.Fatalf("unsafe markup kept: %s", out)
	}
	if !strings.Contains(out, "<p>hi</p>") || !strings.Contains(out, "data:image/png") {
		t.Fatalf("safe markup dropped: %s", out)
	}
}
