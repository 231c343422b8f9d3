// convertd — Document conversion service for GoStamp.
//
// Usage:
//
//	convertd [--config gostamp.yaml] [--addr :8000] [--origin http://localhost:5173]
//
// Endpoints (multipart field "file"):
//
//	POST /convert-docx   DOCX → PDF via soffice
//	POST /upload-docx    DOCX → HTML via the built-in converter
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xob0t/GoStamp/clients/server"
	"github.com/xob0t/GoStamp/pkg/config"
	"github.com/xob0t/GoStamp/pkg/surface"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convertd", flag.ExitOnError)
	var configPath, addr, origin, soffice string
	fs.StringVar(&configPath, "config", "", "Path to gostamp.yaml (optional)")
	fs.StringVar(&addr, "addr", ":8000", "Listen address")
	fs.StringVar(&origin, "origin", "*", "Allowed CORS origin")
	fs.StringVar(&soffice, "soffice", "", "LibreOffice binary (overrides converter.soffice)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if soffice != "" {
		cfg.Converter.Soffice = soffice
	}
	log := cfg.Logger(os.Stdout)

	h := newRouter(handlerConfig{
		PDF: surface.NewOfficeConverter(surface.OfficeConfig{
			Soffice: cfg.Converter.Soffice,
			Timeout: cfg.Converter.Timeout,
			Logger:  log,
		}),
		HTML:      surface.NewDocxConverter(),
		Origin:    origin,
		MaxUpload: cfg.MaxUploadBytes(),
		Logger:    log,
	})
	return server.Run(ctx, addr, h, cfg.Server.ShutdownTimeout, log)
}
