package compositor

import (
	"fmt"

	"github.com/xob0t/GoStamp/pkg/stamp"
)

// Resolve turns placements into drawable layers, preserving order. Placements
// whose library entry no longer exists are skipped and reported in skipped;
// a stamp whose bytes cannot be decoded is an error.
func Resolve(snap *stamp.Snapshot, placements []stamp.Placement) (layers []Layer, skipped []string, err error) {
	layers = make([]Layer, 0, len(placements))
	for _, p := range placements {
		img, ok, err := snap.Image(p.LibraryID)
		if err != nil {
			return nil, skipped, fmt.Errorf("placement %s: %w", p.ID, err)
		}
		if !ok {
			skipped = append(skipped, p.ID)
			continue
		}
		layers = append(layers, Layer{
			Image:    img,
			X:        p.X,
			Y:        p.Y,
			Size:     p.Size,
			Rotation: p.Rotation,
		})
	}
	return layers, skipped, nil
}
