// text.go — Pure-Go flattened snapshotter.
// Lays out the converted HTML as blocks of wrapped text on a white canvas,
// then draws the stamp layers with the compositor. Used when no browser is
// available; the browser snapshotter gives the faithful CSS rendering.
package surface

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/stamp"
)

// TextSnapshotter renders flattened documents without a browser.
type TextSnapshotter struct {
	cfg   FlattenedConfig
	fonts *FontManager
	comp  *compositor.Compositor

	// font faces keep per-glyph scratch buffers
	mu sync.Mutex
}

// NewTextSnapshotter creates a snapshotter drawing stamps with comp.
func NewTextSnapshotter(cfg FlattenedConfig, comp *compositor.Compositor) (*TextSnapshotter, error) {
	cfg.defaults()
	fonts, err := NewFontManager(cfg.FontPath, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &TextSnapshotter{cfg: cfg, fonts: fonts, comp: comp}, nil
}

// block is one laid-out paragraph-level element.
type block struct {
	text   string
	scale  float64 // font size relative to the base size
	bold   bool
	bullet bool
	margin float64 // em below the block
}

type textLine struct {
	text string
	x, y int
	face font.Face
}

// Snapshot renders html and layers into one raster.
func (s *TextSnapshotter) Snapshot(ctx context.Context, doc string, layers []compositor.Layer) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	blocks, err := htmlBlocks(doc)
	if err != nil {
		return Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, height, err := s.layout(blocks)
	if err != nil {
		return Page{}, err
	}

	canvas := compositor.NewSolidImage(s.cfg.Width, max(height, s.cfg.MinHeight), compositor.MustColor(s.cfg.Background))
	ink := image.NewUniform(color.Black)
	for _, l := range lines {
		d := &font.Drawer{Dst: canvas, Src: ink, Face: l.face, Dot: fixed.P(l.x, l.y)}
		d.DrawString(l.text)
	}

	for _, l := range layers {
		s.comp.DrawLayer(canvas, l)
	}
	return NewPage(stamp.FlattenedPage, canvas), nil
}

// layout wraps every block to the container width and returns the positioned
// lines plus the total content height including padding.
func (s *TextSnapshotter) layout(blocks []block) ([]textLine, int, error) {
	pad := s.cfg.Padding
	left := pad
	width := s.cfg.Width - 2*pad
	y := float64(pad)

	var lines []textLine
	for _, b := range blocks {
		size := s.cfg.FontSize * b.scale
		face, err := s.fonts.Face(size, b.bold)
		if err != nil {
			return nil, 0, err
		}
		lineHeight := size * 1.5

		x, w := left, width
		text := b.text
		if b.bullet {
			indent := int(size * 1.5)
			x, w = left+indent, width-indent
			text = "• " + text
		}

		for _, para := range strings.Split(text, "\n") {
			wrapped := wrapText(para, w, face)
			if len(wrapped) == 0 {
				y += lineHeight
				continue
			}
			for _, line := range wrapped {
				// Baseline sits where CSS would center the glyph box in the line.
				baseline := y + (lineHeight+size*0.7)/2
				lines = append(lines, textLine{text: line, x: x, y: int(baseline), face: face})
				y += lineHeight
			}
		}
		y += b.margin * size
	}
	return lines, int(y) + pad, nil
}

// wrapText breaks a single string of text into multiple lines that each fit
// within maxWidth pixels, using the metrics of the provided font face.
func wrapText(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		test := current + " " + word
		if font.MeasureString(face, test).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = test
		}
	}
	return append(lines, current)
}

// ── HTML → blocks ──

var headingScale = map[atom.Atom]float64{
	atom.H1: 2, atom.H2: 1.5, atom.H3: 1.17, atom.H4: 1, atom.H5: 0.83, atom.H6: 0.67,
}

func htmlBlocks(doc string) ([]block, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []block
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			case atom.P, atom.Div, atom.Blockquote, atom.Pre:
				if !hasBlockChild(n) {
					blocks = appendBlock(blocks, block{text: inlineText(n), scale: 1, margin: 1})
					return
				}
			case atom.Li:
				blocks = appendBlock(blocks, block{text: inlineText(n), scale: 1, bullet: true})
				return
			case atom.Tr:
				var cells []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
						cells = append(cells, strings.TrimSpace(inlineText(c)))
					}
				}
				blocks = appendBlock(blocks, block{text: strings.Join(cells, "   "), scale: 1, margin: 0.25})
				return
			case atom.Ul, atom.Ol:
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				if len(blocks) > 0 {
					blocks[len(blocks)-1].margin = 1
				}
				return
			}
			if scale, ok := headingScale[n.DataAtom]; ok {
				blocks = appendBlock(blocks, block{text: inlineText(n), scale: scale, bold: true, margin: 0.67})
				return
			}
		}
		if n.Type == html.TextNode && n.Parent != nil && n.Parent.DataAtom == atom.Body {
			blocks = appendBlock(blocks, block{text: n.Data, scale: 1, margin: 1})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks, nil
}

func appendBlock(blocks []block, b block) []block {
	if strings.TrimSpace(b.text) == "" {
		return blocks
	}
	return append(blocks, b)
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.P, atom.Div, atom.Table, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return true
		}
	}
	return false
}

// inlineText flattens an element's text; <br> becomes a newline.
func inlineText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
