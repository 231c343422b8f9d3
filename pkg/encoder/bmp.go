// bmp.go — Single-page BMP writer.
package encoder

import (
	"fmt"
	"io"

	"golang.org/x/image/bmp"

	"github.com/xob0t/GoStamp/pkg/surface"
)

// BMP writes a single page as an uncompressed bitmap. Pages are flattened
// onto white first; BMP carries no alpha for viewers to honor.
type BMP struct{}

func (BMP) ContentType() string { return "image/bmp" }
func (BMP) Ext() string         { return ".bmp" }

// Encode writes the only page.
func (BMP) Encode(w io.Writer, pages []surface.Page) error {
	if err := singlePage("bmp", pages); err != nil {
		return err
	}
	return encodeBuffered(w, func(out io.Writer) error {
		if err := bmp.Encode(out, onWhite(pages[0].Image)); err != nil {
			return fmt.Errorf("encode BMP: %w", err)
		}
		return nil
	})
}
