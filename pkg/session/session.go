// Package session is the single owner of editor state: the loaded document,
// the current page, the stamp library, the placements and the drag selection.
// Every mutation goes through a Session method, so clamping, ordering and
// selection rules are enforced in one place.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/export"
	"github.com/xob0t/GoStamp/pkg/interact"
	"github.com/xob0t/GoStamp/pkg/stamp"
	"github.com/xob0t/GoStamp/pkg/surface"
)

var (
	ErrUnsupportedDocument = errors.New("session: unsupported document")
	ErrConversionFailure   = errors.New("session: conversion failed")
	ErrNoDocument          = errors.New("session: no document loaded")
	ErrUnknownPlacement    = errors.New("session: unknown placement")
)

// Config wires a Session to its collaborators.
type Config struct {
	Limits     stamp.Limits
	Compositor *compositor.Compositor
	Rasterizer surface.Rasterizer

	// DocxMode is "pdf" (convert, then rasterize into pages) or "html"
	// (one flattened surface).
	DocxMode      string
	PDFConverter  surface.PDFConverter
	HTMLConverter surface.HTMLConverter
	Snapshotter   surface.Snapshotter

	Logger *slog.Logger

	AssetIDs     stamp.IDGenerator
	PlacementIDs stamp.IDGenerator
}

func (c *Config) defaults() {
	if c.Compositor == nil {
		c.Compositor = compositor.New(compositor.Options{})
	}
	if c.DocxMode == "" {
		c.DocxMode = "pdf"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session holds one user's editing state.
type Session struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	lib     *stamp.Library
	store   *stamp.Store
	ctrl    *interact.Controller
	doc     *document
	current int
}

// New creates an empty session.
func New(cfg Config) *Session {
	cfg.defaults()

	var libOpts []stamp.LibraryOption
	if cfg.AssetIDs != nil {
		libOpts = append(libOpts, stamp.WithAssetIDs(cfg.AssetIDs))
	}
	var storeOpts []stamp.StoreOption
	if cfg.PlacementIDs != nil {
		storeOpts = append(storeOpts, stamp.WithPlacementIDs(cfg.PlacementIDs))
	}

	lib := stamp.NewLibrary(cfg.Limits, libOpts...)
	store := stamp.NewStore(lib, storeOpts...)
	return &Session{
		cfg:   cfg,
		log:   cfg.Logger,
		lib:   lib,
		store: store,
		ctrl:  interact.NewController(store),
	}
}

// Limits returns the effective stamp limits.
func (s *Session) Limits() stamp.Limits {
	return s.lib.Limits()
}

// ── Library ──

// UploadStamp adds an image to the library. Uploads whose content type is
// not an image are ignored and report false.
func (s *Session) UploadStamp(name, contentType string, data []byte) (stamp.Asset, bool) {
	if !stamp.IsImageType(contentType) {
		s.log.Debug("stamp upload ignored", "name", name, "content_type", contentType)
		return stamp.Asset{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lib.AddAsset(name, contentType, data)
	s.log.Info("stamp uploaded", "stamp", a.ID, "name", name, "bytes", len(data))
	return a, true
}

// UpdateStamp edits a library entry's default size and rotation.
func (s *Session) UpdateStamp(id string, upd stamp.AssetUpdate) (stamp.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lib.UpdateAsset(id, upd)
}

// Stamps lists the library in upload order.
func (s *Session) Stamps() []stamp.Asset {
	return s.lib.ListAssets()
}

// Stamp returns one library entry including its bytes.
func (s *Session) Stamp(id string) (stamp.Asset, bool) {
	return s.lib.Asset(id)
}

// ── Placements ──

// AddToCurrentPage places a library stamp on the page being viewed, or on
// the flattened surface.
func (s *Session) AddToCurrentPage(libraryID string) (stamp.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(libraryID, s.targetPageLocked())
}

// AddToPage places a library stamp on a specific page. An unknown library id
// is a no-op.
func (s *Session) AddToPage(libraryID string, page int) (stamp.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(libraryID, page)
}

func (s *Session) addLocked(libraryID string, page int) (stamp.Placement, bool) {
	p, ok := s.store.Add(libraryID, page)
	if !ok {
		s.log.Debug("add placement ignored", "stamp", libraryID)
		return p, false
	}
	return p, true
}

// targetPageLocked is the page new placements land on.
func (s *Session) targetPageLocked() int {
	if s.doc != nil && s.doc.flattened() {
		return stamp.FlattenedPage
	}
	return max(s.current, 1)
}

// RemovePlacement deletes a placement through its delete control.
func (s *Session) RemovePlacement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.DeletePressed(id)
}

// MovePlacement sets a placement's top-left corner in page pixels.
func (s *Session) MovePlacement(id string, x, y float64) (stamp.Placement, error) {
	return s.edit(id, func() bool { return s.store.UpdatePosition(id, x, y) })
}

// ResizePlacement sets a placement's edge length, clamped to the limits.
func (s *Session) ResizePlacement(id string, size float64) (stamp.Placement, error) {
	return s.edit(id, func() bool { return s.store.Resize(id, size) })
}

// RotatePlacement sets a placement's rotation, wrapped into [0,360).
func (s *Session) RotatePlacement(id string, deg float64) (stamp.Placement, error) {
	return s.edit(id, func() bool { return s.store.Rotate(id, deg) })
}

func (s *Session) edit(id string, fn func() bool) (stamp.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn() {
		return stamp.Placement{}, fmt.Errorf("%w: %s", ErrUnknownPlacement, id)
	}
	p, _ := s.store.Get(id)
	return p, nil
}

// Placement returns one placement.
func (s *Session) Placement(id string) (stamp.Placement, bool) {
	return s.store.Get(id)
}

// Placements returns the placements on one page in z-order.
func (s *Session) Placements(page int) []stamp.Placement {
	return s.store.ForPage(page)
}

// AllPlacements returns every placement in z-order.
func (s *Session) AllPlacements() []stamp.Placement {
	return s.store.All()
}

// ── Pointer protocol ──

// PointerDown selects a placement and starts dragging it.
func (s *Session) PointerDown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerDown(id)
}

// PointerMove drags the active placement so it stays centered under p.
func (s *Session) PointerMove(p interact.Point, vp interact.Viewport) (stamp.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ctrl.PointerMove(p, vp) {
		return stamp.Placement{}, false
	}
	id, _ := s.ctrl.Active()
	return s.store.Get(id)
}

// PointerUp ends any drag.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.PointerUp()
}

// ── Navigation ──

// GoToPage changes the current page. Numbers outside 1..N are ignored.
func (s *Session) GoToPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.doc.flattened() || n < 1 || n > s.doc.pageCount() {
		return false
	}
	s.current = n
	return true
}

// CurrentPage returns the page being viewed, FlattenedPage for flattened
// documents and 0 with no document.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PageGroups splits the document's pages into catalogue groups of ten.
func (s *Session) PageGroups() []PageGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.doc.flattened() {
		return nil
	}
	return Groups(s.doc.pageCount(), GroupSize)
}

// ── Snapshots, previews and export ──

// Snapshot copies the library and placements at this instant.
func (s *Session) Snapshot() *stamp.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stamp.NewSnapshot(s.lib, s.store)
}

// Source returns the export source for the loaded document together with a
// snapshot taken under the same lock.
func (s *Session) Source() (export.Source, *stamp.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, nil, ErrNoDocument
	}
	return s.doc.source(s.cfg), stamp.NewSnapshot(s.lib, s.store), nil
}

// Export renders the document with every placement flattened in and writes
// it with enc. Edits made while the export runs do not affect it.
func (s *Session) Export(ctx context.Context, enc encoder.Encoder, w io.Writer) (export.Result, error) {
	src, snap, err := s.Source()
	if err != nil {
		return export.Result{}, err
	}
	for _, warn := range snap.Warnings() {
		s.log.Warn("export: " + warn)
	}
	return export.Pipeline{Logger: s.log}.Export(ctx, src, snap, enc, w)
}

// PageRaster returns page n without stamps. For flattened documents n must
// be FlattenedPage.
func (s *Session) PageRaster(ctx context.Context, n int) (surface.Page, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return surface.Page{}, ErrNoDocument
	}
	return doc.raster(ctx, s.cfg, n, nil)
}

// Preview renders page n exactly as it will be exported.
func (s *Session) Preview(ctx context.Context, n int) (surface.Page, error) {
	s.mu.Lock()
	doc := s.doc
	snap := stamp.NewSnapshot(s.lib, s.store)
	s.mu.Unlock()
	if doc == nil {
		return surface.Page{}, ErrNoDocument
	}
	return doc.raster(ctx, s.cfg, n, snap)
}

// Info summarizes the session for the presentation layer.
type Info struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"` // pdf | docx
	Flattened   bool   `json:"flattened"`
	PageCount   int    `json:"pageCount"`
	CurrentPage int    `json:"currentPage"`
	Stamps      int    `json:"stamps"`
	Placements  int    `json:"placements"`
	Active      string `json:"active,omitempty"`
	State       string `json:"state"`
}

// Info returns the current summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		CurrentPage: s.current,
		Stamps:      s.lib.Len(),
		Placements:  s.store.Len(),
		State:       s.ctrl.State().String(),
	}
	if id, ok := s.ctrl.Active(); ok {
		info.Active = id
	}
	if s.doc != nil {
		info.Name = s.doc.name
		info.Type = string(s.doc.kind)
		info.Flattened = s.doc.flattened()
		info.PageCount = s.doc.pageCount()
	}
	return info
}
