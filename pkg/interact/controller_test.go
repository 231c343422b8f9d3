package interact

import (
	"testing"

	"github.com/xob0t/GoStamp/pkg/stamp"
)

func setup(t *testing.T) (*stamp.Store, *Controller, stamp.Placement, stamp.Placement) {
	t.Helper()
	lib := stamp.NewLibrary(stamp.Limits{})
	a := lib.AddAsset("seal.png", "image/png", nil)
	store := stamp.NewStore(lib)
	p1, _ := store.Add(a.ID, 1)
	p2, _ := store.Add(a.ID, 1)
	return store, NewController(store), p1, p2
}

func TestDragCentersUnderPointer(t *testing.T) {
	store, c, p1, _ := setup(t)

	if !c.PointerDown(p1.ID) {
		t.Fatal("PointerDown failed")
	}
	if c.State() != Dragging {
		t.Fatalf("state = %v", c.State())
	}

	vp := Viewport{OriginX: 200, OriginY: 100}
	c.PointerMove(Point{X: 370, Y: 230}, vp)

	got, _ := store.Get(p1.ID)
	// (370-200) - 100/2 = 120, (230-100) - 50 = 80
	if got.X != 120 || got.Y != 80 {
		t.Fatalf("position = %v,%v, want 120,80", got.X, got.Y)
	}

	// Origin is re-read on every move: the container scrolled by 30px.
	c.PointerMove(Point{X: 370, Y: 230}, Viewport{OriginX: 200, OriginY: 70})
	got, _ = store.Get(p1.ID)
	if got.Y != 110 {
		t.Fatalf("after scroll y = %v, want 110", got.Y)
	}
}

func TestViewportScale(t *testing.T) {
	store, c, p1, _ := setup(t)
	c.PointerDown(p1.ID)
	// Page shown at half size: pointer at 100 display px is page px 200.
	c.PointerMove(Point{X: 100, Y: 100}, Viewport{Scale: 0.5})
	got, _ := store.Get(p1.ID)
	if got.X != 150 || got.Y != 150 {
		t.Fatalf("position = %v,%v, want 150,150", got.X, got.Y)
	}
}

func TestMoveWhileIdleDoesNothing(t *testing.T) {
	store, c, p1, _ := setup(t)
	if c.PointerMove(Point{X: 500, Y: 500}, Viewport{}) {
		t.Fatal("move while idle reported a change")
	}
	got, _ := store.Get(p1.ID)
	if got.X != 50 || got.Y != 50 {
		t.Fatalf("placement moved to %v,%v", got.X, got.Y)
	}
}

func TestPointerUpClearsSelection(t *testing.T) {
	_, c, p1, _ := setup(t)
	c.PointerDown(p1.ID)
	c.PointerUp()
	if _, ok := c.Active(); ok || c.State() != Idle {
		t.Fatalf("state after up = %v", c.State())
	}
	// Up while idle is harmless.
	c.PointerUp()
}

func TestSelectionReassignment(t *testing.T) {
	store, c, p1, p2 := setup(t)
	c.PointerDown(p1.ID)
	c.PointerDown(p2.ID)

	if id, ok := c.Active(); !ok || id != p2.ID {
		t.Fatalf("active = %q, want %q", id, p2.ID)
	}
	c.PointerMove(Point{X: 60, Y: 60}, Viewport{})
	if got, _ := store.Get(p1.ID); got.X != 50 {
		t.Fatal("previous selection moved")
	}
	if got, _ := store.Get(p2.ID); got.X != 10 {
		t.Fatalf("p2 x = %v, want 10", got.X)
	}
}

func TestDeleteDoesNotStartDrag(t *testing.T) {
	store, c, p1, p2 := setup(t)
	if !c.DeletePressed(p1.ID) {
		t.Fatal("DeletePressed failed")
	}
	if c.State() != Idle {
		t.Fatal("delete started a drag")
	}
	if store.Len() != 1 {
		t.Fatalf("store length = %d", store.Len())
	}

	// Deleting the placement being dragged ends the drag.
	c.PointerDown(p2.ID)
	c.DeletePressed(p2.ID)
	if c.State() != Idle {
		t.Fatal("drag survived deletion of its target")
	}
}

func TestRemovedTargetFallsBackToIdle(t *testing.T) {
	store, c, p1, p2 := setup(t)
	c.PointerDown(p1.ID)
	store.Remove(p1.ID)

	if c.PointerMove(Point{X: 10, Y: 10}, Viewport{}) {
		t.Fatal("move on a removed placement reported a change")
	}
	if c.State() != Idle {
		t.Fatal("expected idle after target removal")
	}
	if got, _ := store.Get(p2.ID); got.X != 50 {
		t.Fatal("neighbour placement moved")
	}
	if c.PointerDown("unknown") {
		t.Fatal("PointerDown on unknown id succeeded")
	}
}
