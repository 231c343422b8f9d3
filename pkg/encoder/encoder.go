// Package encoder writes a rendered page sequence into one output file.
//
// All output follows a unified pipeline: the export pipeline produces page
// rasters first, then an Encoder containerizes them as PDF, PNG, BMP or ZIP.
// Encoders build the whole file in memory, so a failure never leaves a
// partial file behind.
package encoder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xob0t/GoStamp/pkg/surface"
)

// Encoder writes pages, in order, to one container.
type Encoder interface {
	Encode(w io.Writer, pages []surface.Page) error
	ContentType() string
	Ext() string
}

// Options tunes the encoders.
type Options struct {
	// JPEGQuality embeds PDF pages as JPEG at this quality (1-100).
	// Zero keeps them lossless PNG.
	JPEGQuality int `json:"jpegQuality" yaml:"jpeg_quality"`
}

// ForExtension picks the encoder by file extension:
//   - ".pdf" → one page per raster, page size = raster size
//   - ".png" → single page image
//   - ".bmp" → single page bitmap
//   - ".zip" → one PNG per page
func ForExtension(ext string, opts Options) (Encoder, error) {
	switch ext = strings.ToLower(ext); ext {
	case ".pdf":
		return &PDF{JPEGQuality: opts.JPEGQuality}, nil
	case ".png":
		return PNG{}, nil
	case ".bmp":
		return BMP{}, nil
	case ".zip":
		return ZIP{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q: use .pdf, .png, .bmp or .zip", ext)
	}
}

// WriteFile encodes pages into output, choosing the format by its extension.
// The file is only created once encoding has succeeded.
func WriteFile(output string, pages []surface.Page, opts Options) error {
	enc, err := ForExtension(filepath.Ext(output), opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, pages); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// encodeBuffered runs fn into memory and copies the result to w only on success.
func encodeBuffered(w io.Writer, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
