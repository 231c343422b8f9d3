// snapshot.go — Consistent copy of the library and placements for one export.
package stamp

import (
	"fmt"
	"image"
)

// Snapshot is an immutable view of the library and placements taken at one
// point in time. Later edits to the live Library/Store do not affect it.
type Snapshot struct {
	Assets     []Asset
	Placements []Placement

	byID   map[string]int
	images map[string]image.Image
}

// NewSnapshot copies the current state of lib and store.
func NewSnapshot(lib *Library, store *Store) *Snapshot {
	return newSnapshot(lib.ListAssets(), store.All())
}

func newSnapshot(assets []Asset, placements []Placement) *Snapshot {
	s := &Snapshot{
		Assets:     assets,
		Placements: placements,
		byID:       make(map[string]int, len(assets)),
		images:     make(map[string]image.Image),
	}
	for i, a := range assets {
		s.byID[a.ID] = i
	}
	return s
}

// ForPage returns the snapshot's placements on one page, in z-order.
func (s *Snapshot) ForPage(page int) []Placement {
	return filterPage(s.Placements, page)
}

// Asset resolves a library id inside the snapshot.
func (s *Snapshot) Asset(id string) (Asset, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Asset{}, false
	}
	return s.Assets[i], true
}

// Image decodes the stamp image for a library id. ok is false for an orphaned
// reference; err is set when the asset exists but its bytes do not decode.
// A Snapshot is used by one export at a time and is not safe for concurrent use.
func (s *Snapshot) Image(libraryID string) (img image.Image, ok bool, err error) {
	if img, cached := s.images[libraryID]; cached {
		return img, true, nil
	}
	a, ok := s.Asset(libraryID)
	if !ok {
		return nil, false, nil
	}
	img, err = DecodeImage(a.Data)
	if err != nil {
		return nil, true, fmt.Errorf("stamp %s: %w", a.ID, err)
	}
	s.images[libraryID] = img
	return img, true, nil
}
