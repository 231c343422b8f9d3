// browser.go — Flattened snapshotter backed by headless Chrome (go-rod).
// The document is laid out by the browser exactly as in the interactive view
// and the #docx-container element is captured as PNG.
package surface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/stamp"
)

// BrowserConfig configures BrowserSnapshotter.
type BrowserConfig struct {
	FlattenedConfig
	RemoteURL string // DevTools websocket of a running Chrome; empty launches one
	Bin       string // Chrome binary for local launch; empty lets rod find or fetch one
	Timeout   time.Duration
	Paint     compositor.Options // stamp opacity and blend mode
}

// BrowserSnapshotter renders flattened documents in headless Chrome.
// Chrome is started on first use and reused until Close.
type BrowserSnapshotter struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewBrowserSnapshotter creates a snapshotter. No browser is started yet.
func NewBrowserSnapshotter(cfg BrowserConfig) *BrowserSnapshotter {
	cfg.defaults()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Paint.Opacity <= 0 || cfg.Paint.Opacity > 1 {
		cfg.Paint.Opacity = compositor.DefaultOptions().Opacity
	}
	if cfg.Paint.Blend == "" {
		cfg.Paint.Blend = compositor.BlendMultiply
	}
	return &BrowserSnapshotter{cfg: cfg}
}

var containerTmpl = template.Must(template.New("container").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><style>
html,body{margin:0;background:{{.Background}}}
#docx-container{position:relative;box-sizing:border-box;width:{{.Width}}px;min-height:{{.MinHeight}}px;padding:{{.Padding}}px;background:{{.Background}};font-family:sans-serif;font-size:{{.FontSize}}px;line-height:1.5}
.stamp{position:absolute;opacity:{{.Opacity}};mix-blend-mode:{{.Blend}};transform-origin:center center}
.stamp img{display:block;width:100%;height:100%}
</style></head><body><div id="docx-container">{{.Content}}
{{range .Stamps}}<div class="stamp" style="left:{{.X}}px;top:{{.Y}}px;width:{{.Size}}px;height:{{.Size}}px;transform:rotate({{.Rotation}}deg)"><img src="{{.Src}}" alt=""></div>
{{end}}</div></body></html>`))

type stampView struct {
	X, Y, Size, Rotation float64
	Src                  template.URL
}

func (b *BrowserSnapshotter) document(doc string, layers []compositor.Layer) (string, error) {
	views := make([]stampView, 0, len(layers))
	for i, l := range layers {
		var buf bytes.Buffer
		if err := png.Encode(&buf, l.Image); err != nil {
			return "", fmt.Errorf("encode stamp %d: %w", i, err)
		}
		views = append(views, stampView{
			X: l.X, Y: l.Y, Size: l.Size, Rotation: l.Rotation,
			Src: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())),
		})
	}

	var out bytes.Buffer
	err := containerTmpl.Execute(&out, map[string]any{
		"Background": template.CSS(b.cfg.Background),
		"Width":      b.cfg.Width,
		"MinHeight":  b.cfg.MinHeight,
		"Padding":    b.cfg.Padding,
		"FontSize":   b.cfg.FontSize,
		"Opacity":    b.cfg.Paint.Opacity,
		"Blend":      template.CSS(b.cfg.Paint.Blend),
		"Content":    template.HTML(doc), // sanitized by the converter
		"Stamps":     views,
	})
	if err != nil {
		return "", fmt.Errorf("render container: %w", err)
	}
	return out.String(), nil
}

// Snapshot lays out doc with the stamps and captures the container.
func (b *BrowserSnapshotter) Snapshot(ctx context.Context, doc string, layers []compositor.Layer) (Page, error) {
	content, err := b.document(doc, layers)
	if err != nil {
		return Page{}, err
	}

	browser, err := b.ensure()
	if err != nil {
		return Page{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return Page{}, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.Width,
		Height:            b.cfg.MinHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return Page{}, fmt.Errorf("browser: viewport: %w", err)
	}
	if err := page.SetDocumentContent(content); err != nil {
		return Page{}, fmt.Errorf("browser: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browser: wait load", "error", err)
	}

	el, err := page.Element("#docx-container")
	if err != nil {
		return Page{}, fmt.Errorf("browser: find container: %w", err)
	}
	shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return Page{}, fmt.Errorf("browser: screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return Page{}, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	return NewPage(stamp.FlattenedPage, toRGBA(img)), nil
}

func (b *BrowserSnapshotter) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		if b.cfg.Bin != "" {
			l = l.Bin(b.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		b.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		if b.lnch != nil {
			b.lnch.Kill()
			b.lnch = nil
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// Close shuts the browser down. The snapshotter can be used again afterwards.
func (b *BrowserSnapshotter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch = nil
	}
	return err
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
