// Package config handles gostamp configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/stamp"
)

// Config is the top-level configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Render     RenderConfig     `yaml:"render"`
	Stamps     stamp.Limits     `yaml:"stamps"`
	Converter  ConverterConfig  `yaml:"converter"`
	Rasterizer RasterizerConfig `yaml:"rasterizer"`
	Flattened  FlattenedConfig  `yaml:"flattened"`
	Export     encoder.Options  `yaml:"export"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RenderConfig controls page rasterization and stamp painting.
type RenderConfig struct {
	Scale         float64 `yaml:"scale"` // raster pixels per PDF point
	Opacity       float64 `yaml:"opacity"`
	Blend         string  `yaml:"blend"`         // multiply | normal
	Interpolation string  `yaml:"interpolation"` // nearest | approx-bilinear | bilinear | catmull-rom
}

// ConverterConfig selects how DOCX uploads are handled.
type ConverterConfig struct {
	Mode      string        `yaml:"mode"`    // pdf (paged) | html (flattened)
	Backend   string        `yaml:"backend"` // office | remote | builtin
	Soffice   string        `yaml:"soffice"`
	RemoteURL string        `yaml:"remote_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RasterizerConfig locates the PDF rasterizer.
type RasterizerConfig struct {
	Pdftoppm string `yaml:"pdftoppm"`
}

// FlattenedConfig describes the container used for flattened documents.
type FlattenedConfig struct {
	Width       int     `yaml:"width"`
	MinHeight   int     `yaml:"min_height"`
	Padding     int     `yaml:"padding"`
	FontSize    float64 `yaml:"font_size"`
	FontPath    string  `yaml:"font_path"`
	Background  string  `yaml:"background"`
	Snapshotter string  `yaml:"snapshotter"` // text | browser
	ChromeURL   string  `yaml:"chrome_url"`  // DevTools websocket of a running Chrome
	ChromeBin   string  `yaml:"chrome_bin"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 50
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	d := compositor.DefaultOptions()
	if c.Render.Scale <= 0 {
		c.Render.Scale = 2.0
	}
	if c.Render.Opacity <= 0 {
		c.Render.Opacity = d.Opacity
	}
	if c.Render.Blend == "" {
		c.Render.Blend = string(d.Blend)
	}
	if c.Render.Interpolation == "" {
		c.Render.Interpolation = d.Interpolation
	}

	l := stamp.DefaultLimits()
	if c.Stamps.MinSize <= 0 {
		c.Stamps.MinSize = l.MinSize
	}
	if c.Stamps.MaxSize <= 0 {
		c.Stamps.MaxSize = l.MaxSize
	}
	if c.Stamps.DefaultSize <= 0 {
		c.Stamps.DefaultSize = l.DefaultSize
	}
	if c.Stamps.DefaultX == nil {
		c.Stamps.DefaultX = l.DefaultX
	}
	if c.Stamps.DefaultY == nil {
		c.Stamps.DefaultY = l.DefaultY
	}

	if c.Converter.Mode == "" {
		c.Converter.Mode = "pdf"
	}
	if c.Converter.Backend == "" {
		if c.Converter.Mode == "html" {
			c.Converter.Backend = "builtin"
		} else {
			c.Converter.Backend = "office"
		}
	}
	if c.Converter.Soffice == "" {
		c.Converter.Soffice = "soffice"
	}
	if c.Converter.RemoteURL == "" {
		c.Converter.RemoteURL = "http://localhost:8000"
	}
	if c.Converter.Timeout <= 0 {
		c.Converter.Timeout = 60 * time.Second
	}

	if c.Rasterizer.Pdftoppm == "" {
		c.Rasterizer.Pdftoppm = "pdftoppm"
	}

	if c.Flattened.Width <= 0 {
		c.Flattened.Width = 1200
	}
	if c.Flattened.MinHeight <= 0 {
		c.Flattened.MinHeight = 600
	}
	if c.Flattened.Padding == 0 {
		c.Flattened.Padding = 16
	}
	if c.Flattened.FontSize <= 0 {
		c.Flattened.FontSize = 16
	}
	if c.Flattened.Background == "" {
		c.Flattened.Background = "#ffffff"
	}
	if c.Flattened.Snapshotter == "" {
		c.Flattened.Snapshotter = "text"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Opacity > 1 {
		errs = append(errs, fmt.Errorf("render.opacity %.2f: must be in (0,1]", c.Render.Opacity))
	}
	if _, err := compositor.ParseBlendMode(c.Render.Blend); err != nil {
		errs = append(errs, fmt.Errorf("render.blend: %w", err))
	}
	switch c.Render.Interpolation {
	case "nearest", "approx-bilinear", "bilinear", "catmull-rom":
	default:
		errs = append(errs, fmt.Errorf("render.interpolation %q: use nearest, approx-bilinear, bilinear or catmull-rom", c.Render.Interpolation))
	}
	if c.Stamps.MinSize > c.Stamps.MaxSize {
		errs = append(errs, fmt.Errorf("stamps: min_size %.0f exceeds max_size %.0f", c.Stamps.MinSize, c.Stamps.MaxSize))
	}

	switch c.Converter.Mode + "/" + c.Converter.Backend {
	case "pdf/office", "pdf/remote", "html/remote", "html/builtin":
	default:
		errs = append(errs, fmt.Errorf("converter: backend %q cannot produce mode %q", c.Converter.Backend, c.Converter.Mode))
	}
	if c.Flattened.Snapshotter != "text" && c.Flattened.Snapshotter != "browser" {
		errs = append(errs, fmt.Errorf("flattened.snapshotter %q: use text or browser", c.Flattened.Snapshotter))
	}
	if _, err := compositor.ParseColor(c.Flattened.Background); err != nil {
		errs = append(errs, fmt.Errorf("flattened.background: %w", err))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q: use json or text", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Compositor returns the stamp painting options.
func (c *Config) Compositor() compositor.Options {
	return compositor.Options{
		Opacity:       c.Render.Opacity,
		Blend:         compositor.BlendMode(c.Render.Blend),
		Interpolation: c.Render.Interpolation,
	}
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q: use debug, info, warn or error", s)
	}
	return l, nil
}
