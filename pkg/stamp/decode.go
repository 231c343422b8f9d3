package stamp

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// IsImageType reports whether a declared content type is an image upload.
// Only the "image" prefix is checked, mirroring browser file pickers.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image")
}

// DecodeImage decodes stamp bytes in any registered raster format
// (png, jpeg, gif, bmp, tiff, webp).
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode stamp: empty image data")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode stamp: %w", err)
	}
	return img, nil
}
