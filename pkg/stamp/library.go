// library.go — Append-only catalog of uploaded stamp images.
package stamp

import "sync"

// Library owns the uploaded stamp assets in upload order.
type Library struct {
	mu     sync.RWMutex
	limits Limits
	newID  IDGenerator
	order  []string
	assets map[string]*Asset
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithAssetIDs sets the id generator used for new assets.
func WithAssetIDs(gen IDGenerator) LibraryOption {
	return func(l *Library) { l.newID = gen }
}

// NewLibrary creates an empty library. Zero-valued limits fall back to DefaultLimits.
func NewLibrary(limits Limits, opts ...LibraryOption) *Library {
	limits.defaults()
	l := &Library{
		limits: limits,
		newID:  Prefixed("stp_", UUIDv7()),
		assets: make(map[string]*Asset),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Limits returns the size limits the library clamps to.
func (l *Library) Limits() Limits {
	return l.limits
}

// AddAsset registers a new stamp image with default size and rotation.
func (l *Library) AddAsset(name, contentType string, data []byte) Asset {
	a := &Asset{
		ID:          l.newID(),
		Name:        name,
		ContentType: contentType,
		Size:        l.limits.DefaultSize,
		Rotation:    0,
		Data:        data,
	}

	l.mu.Lock()
	l.assets[a.ID] = a
	l.order = append(l.order, a.ID)
	l.mu.Unlock()
	return *a
}

// UpdateAsset edits an asset's defaults. Existing placements keep the values
// they were created with.
func (l *Library) UpdateAsset(id string, upd AssetUpdate) (Asset, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.assets[id]
	if !ok {
		return Asset{}, false
	}
	if upd.Size != nil {
		a.Size = l.limits.ClampSize(*upd.Size)
	}
	if upd.Rotation != nil {
		a.Rotation = NormalizeRotation(*upd.Rotation)
	}
	return *a, true
}

// Asset looks up an asset by id.
func (l *Library) Asset(id string) (Asset, bool) {
	l.mu.RLock()
	a, ok := l.assets[id]
	l.mu.RUnlock()
	if !ok {
		return Asset{}, false
	}
	return *a, true
}

// ListAssets returns the catalog in upload order.
func (l *Library) ListAssets() []Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]Asset, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, *l.assets[id])
	}
	return result
}

// Len returns the number of assets.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
