// wire.go — Builds the session collaborators from configuration.
package main

import (
	"fmt"
	"log/slog"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/config"
	"github.com/xob0t/GoStamp/pkg/session"
	"github.com/xob0t/GoStamp/pkg/surface"
)

// collaborators turns cfg into a session.Config. The returned closer stops
// any headless browser that was started.
func collaborators(cfg *config.Config, log *slog.Logger) (session.Config, func() error, error) {
	comp := compositor.New(cfg.Compositor())
	sc := session.Config{
		Limits:     cfg.Stamps,
		Compositor: comp,
		Rasterizer: surface.NewPDFRasterizer(surface.RasterConfig{
			Pdftoppm: cfg.Rasterizer.Pdftoppm,
			Scale:    cfg.Render.Scale,
			Logger:   log,
		}),
		DocxMode: cfg.Converter.Mode,
		Logger:   log,
	}

	switch cfg.Converter.Backend {
	case "office":
		sc.PDFConverter = surface.NewOfficeConverter(surface.OfficeConfig{
			Soffice: cfg.Converter.Soffice,
			Timeout: cfg.Converter.Timeout,
			Logger:  log,
		})
	case "remote":
		rc := surface.NewRemoteConverter(surface.RemoteConfig{
			BaseURL: cfg.Converter.RemoteURL,
			Timeout: cfg.Converter.Timeout,
		})
		sc.PDFConverter = rc
		sc.HTMLConverter = rc
	case "builtin":
		sc.HTMLConverter = surface.NewDocxConverter()
	default:
		return session.Config{}, nil, fmt.Errorf("unknown converter backend %q", cfg.Converter.Backend)
	}

	fc := surface.FlattenedConfig{
		Width:      cfg.Flattened.Width,
		MinHeight:  cfg.Flattened.MinHeight,
		Padding:    cfg.Flattened.Padding,
		FontSize:   cfg.Flattened.FontSize,
		FontPath:   cfg.Flattened.FontPath,
		Background: cfg.Flattened.Background,
		Logger:     log,
	}
	closer := func() error { return nil }
	switch cfg.Flattened.Snapshotter {
	case "browser":
		b := surface.NewBrowserSnapshotter(surface.BrowserConfig{
			FlattenedConfig: fc,
			RemoteURL:       cfg.Flattened.ChromeURL,
			Bin:             cfg.Flattened.ChromeBin,
			Timeout:         cfg.Converter.Timeout,
			Paint:           cfg.Compositor(),
		})
		sc.Snapshotter = b
		closer = b.Close
	default:
		t, err := surface.NewTextSnapshotter(fc, comp)
		if err != nil {
			return session.Config{}, nil, fmt.Errorf("text snapshotter: %w", err)
		}
		sc.Snapshotter = t
	}
	return sc, closer, nil
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
