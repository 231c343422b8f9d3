// docx.go — Built-in DOCX → HTML conversion from word/document.xml.
// Covers paragraphs, headings, list items, bold/italic/underline runs, line
// breaks and tables. Layout details (fonts, spacing, images) are dropped.
package surface

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DocxConverter converts DOCX to sanitized HTML without external tools.
type DocxConverter struct {
	sanitize *Sanitizer
}

// NewDocxConverter creates the built-in HTML converter.
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{sanitize: NewSanitizer()}
}

// ToHTML converts one document.
func (c *DocxConverter) ToHTML(ctx context.Context, name string, docx []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := docxToHTML(docx)
	if err != nil {
		return "", &ConvertError{Backend: "builtin", Name: name, Err: err}
	}
	return c.sanitize.HTML(out), nil
}

func docxToHTML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if err := checkPartName(f.Name); err != nil {
			return "", err
		}
		if f.Name == "word/document.xml" {
			docFile = f
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	body, err := parseDocument(xml.NewDecoder(rc))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// checkPartName rejects archive entries that would escape the package root.
func checkPartName(name string) error {
	clean := path.Clean("/" + name)
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") || clean != "/"+strings.TrimSuffix(name, "/") {
		return fmt.Errorf("illegal path in docx: %s", name)
	}
	return nil
}

// ── document.xml walker ──

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type docxRun struct {
	bold, italic, underline bool
	text                    strings.Builder
	breakAfter              bool
}

type docxParagraph struct {
	style  string
	list   bool
	runs   []*docxRun
	run    *docxRun
	inText bool
}

func (p *docxParagraph) empty() bool {
	for _, r := range p.runs {
		if strings.TrimSpace(r.text.String()) != "" {
			return false
		}
	}
	return true
}

func parseDocument(dec *xml.Decoder) (*html.Node, error) {
	body := element(atom.Body)
	stack := []*html.Node{body}
	var para *docxParagraph
	inRunProps := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				n := element(atom.Table)
				top.AppendChild(n)
				stack = append(stack, n)
			case "tr":
				n := element(atom.Tr)
				top.AppendChild(n)
				stack = append(stack, n)
			case "tc":
				n := element(atom.Td)
				top.AppendChild(n)
				stack = append(stack, n)
			case "p":
				para = &docxParagraph{}
			case "pStyle":
				if para != nil {
					para.style = attr(t, "val")
				}
			case "numPr":
				if para != nil {
					para.list = true
				}
			case "r":
				if para != nil {
					para.run = &docxRun{}
					para.runs = append(para.runs, para.run)
				}
			case "rPr":
				inRunProps = para != nil && para.run != nil
			case "b":
				if inRunProps {
					para.run.bold = toggleOn(t)
				}
			case "i":
				if inRunProps {
					para.run.italic = toggleOn(t)
				}
			case "u":
				if inRunProps {
					para.run.underline = attr(t, "val") != "none"
				}
			case "t":
				if para != nil && para.run != nil {
					para.inText = true
				}
			case "tab":
				if para != nil && para.run != nil && !inRunProps {
					para.run.text.WriteByte('\t')
				}
			case "br":
				if para != nil && para.run != nil {
					para.run.breakAfter = true
					para.run = &docxRun{bold: para.run.bold, italic: para.run.italic, underline: para.run.underline}
					para.runs = append(para.runs, para.run)
				}
			}

		case xml.CharData:
			if para != nil && para.inText {
				para.run.text.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl", "tr", "tc":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			case "t":
				if para != nil {
					para.inText = false
				}
			case "rPr":
				inRunProps = false
			case "r":
				if para != nil {
					para.run = nil
				}
			case "p":
				if para != nil {
					emitParagraph(top, para)
					para = nil
				}
			}
		}
	}
	return body, nil
}

func emitParagraph(parent *html.Node, p *docxParagraph) {
	if p.empty() {
		return
	}

	var n *html.Node
	switch level := headingLevel(p.style); {
	case level > 0:
		n = element([]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}[level-1])
		parent.AppendChild(n)
	case p.list:
		list := parent.LastChild
		if list == nil || list.DataAtom != atom.Ul {
			list = element(atom.Ul)
			parent.AppendChild(list)
		}
		n = element(atom.Li)
		list.AppendChild(n)
	default:
		n = element(atom.P)
		parent.AppendChild(n)
	}

	for _, r := range p.runs {
		if text := r.text.String(); text != "" {
			inner := &html.Node{Type: html.TextNode, Data: text}
			for _, wrap := range []struct {
				on bool
				a  atom.Atom
			}{{r.underline, atom.U}, {r.italic, atom.Em}, {r.bold, atom.Strong}} {
				if wrap.on {
					w := element(wrap.a)
					w.AppendChild(inner)
					inner = w
				}
			}
			n.AppendChild(inner)
		}
		if r.breakAfter {
			n.AppendChild(element(atom.Br))
		}
	}
}

// headingLevel maps a paragraph style id to 1..6, or 0 for body text.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift", "заголовок"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn reads an OOXML on/off property: absent val or "1"/"true"/"on" is on.
func toggleOn(t xml.StartElement) bool {
	switch attr(t, "val") {
	case "0", "false", "off":
		return false
	}
	return true
}
