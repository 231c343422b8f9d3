// office.go — DOCX → PDF with a headless LibreOffice.
package surface

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// OfficeConfig configures OfficeConverter.
type OfficeConfig struct {
	Soffice string        // binary path, default "soffice"
	Timeout time.Duration // per conversion, default 60s
	Logger  *slog.Logger
}

func (c *OfficeConfig) defaults() {
	if c.Soffice == "" {
		c.Soffice = "soffice"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// OfficeConverter runs `soffice --headless --convert-to pdf` in a scratch dir.
type OfficeConverter struct {
	cfg OfficeConfig
}

// NewOfficeConverter creates a converter. Zero config fields take defaults.
func NewOfficeConverter(cfg OfficeConfig) *OfficeConverter {
	cfg.defaults()
	return &OfficeConverter{cfg: cfg}
}

// ToPDF converts one document.
func (c *OfficeConverter) ToPDF(ctx context.Context, name string, docx []byte) ([]byte, error) {
	pdf, err := c.convert(ctx, docx)
	if err != nil {
		return nil, &ConvertError{Backend: "office", Name: name, Err: err}
	}
	return pdf, nil
}

func (c *OfficeConverter) convert(ctx context.Context, docx []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "gostamp-office-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.docx")
	if err := os.WriteFile(in, docx, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	// A private profile dir lets concurrent conversions run side by side.
	profile := "file://" + filepath.ToSlash(filepath.Join(dir, "profile"))
	cmd := exec.CommandContext(ctx, c.cfg.Soffice,
		"-env:UserInstallation="+profile,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", dir,
		in)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(out.String()))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "input.pdf"))
	if err != nil {
		return nil, fmt.Errorf("soffice produced no pdf: %w", err)
	}
	c.cfg.Logger.Debug("converted docx", "bytes", len(pdf), "took", time.Since(start))
	return pdf, nil
}
