// store.go — Ordered placement store. Insertion order is the z-order:
// later placements are drawn on top of earlier ones.
package stamp

import "sync"

// Store owns the ordered sequence of placements.
type Store struct {
	mu     sync.RWMutex
	lib    *Library
	limits Limits
	newID  IDGenerator
	items  []Placement
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPlacementIDs sets the id generator used for new placements.
func WithPlacementIDs(gen IDGenerator) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty store resolving library ids against lib.
func NewStore(lib *Library, opts ...StoreOption) *Store {
	s := &Store{
		lib:    lib,
		limits: lib.Limits(),
		newID:  Prefixed("plc_", UUIDv7()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add places a copy of a library stamp on a page at the default position,
// seeded from the asset's current size and rotation. An unknown library id
// is a no-op and reports false.
func (s *Store) Add(libraryID string, page int) (Placement, bool) {
	a, ok := s.lib.Asset(libraryID)
	if !ok {
		return Placement{}, false
	}

	x, y := s.limits.DefaultPosition()
	p := Placement{
		ID:        s.newID(),
		LibraryID: libraryID,
		Page:      page,
		X:         x,
		Y:         y,
		Size:      s.limits.ClampSize(a.Size),
		Rotation:  NormalizeRotation(a.Rotation),
	}

	s.mu.Lock()
	s.items = append(s.items, p)
	s.mu.Unlock()
	return p, true
}

// Remove deletes a placement by id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// UpdatePosition overwrites a placement's top-left corner.
func (s *Store) UpdatePosition(id string, x, y float64) bool {
	return s.update(id, func(p *Placement) {
		p.X, p.Y = x, y
	})
}

// Resize sets a placement's edge length, clamped to the library limits.
func (s *Store) Resize(id string, size float64) bool {
	return s.update(id, func(p *Placement) {
		p.Size = s.limits.ClampSize(size)
	})
}

// Rotate sets a placement's rotation, wrapped into [0,360).
func (s *Store) Rotate(id string, deg float64) bool {
	return s.update(id, func(p *Placement) {
		p.Rotation = NormalizeRotation(deg)
	})
}

func (s *Store) update(id string, fn func(*Placement)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	fn(&s.items[i])
	return true
}

// Get returns a placement by id.
func (s *Store) Get(id string) (Placement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Placement{}, false
	}
	return s.items[i], true
}

// Index returns the z-order position of a placement.
func (s *Store) Index(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	return i, i >= 0
}

// ForPage returns the placements on one page, in z-order.
func (s *Store) ForPage(page int) []Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterPage(s.items, page)
}

// All returns every placement in z-order.
func (s *Store) All() []Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Placement(nil), s.items...)
}

// Len returns the number of placements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func filterPage(items []Placement, page int) []Placement {
	var result []Placement
	for _, p := range items {
		if p.Page == page {
			result = append(result, p)
		}
	}
	return result
}
