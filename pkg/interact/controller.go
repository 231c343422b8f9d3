// Package interact turns pointer events on the visible document surface into
// placement moves. One placement at most is active at a time.
package interact

import "github.com/xob0t/GoStamp/pkg/stamp"

// State is the controller's drag state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Point is a pointer position in the coordinate space of the pointer event.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport locates the currently visible page (or flattened container) in
// pointer space. It is supplied with every event because the container can
// scroll or resize between events. Scale is display pixels per page pixel;
// zero means 1.
type Viewport struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Scale   float64 `json:"scale"`
}

// ToPage converts a pointer position into page-pixel coordinates.
func (v Viewport) ToPage(p Point) (x, y float64) {
	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	return (p.X - v.OriginX) / scale, (p.Y - v.OriginY) / scale
}

// Controller is the Idle/Dragging state machine over a placement store.
type Controller struct {
	store  *stamp.Store
	state  State
	active string
}

// NewController creates an idle controller over store.
func NewController(store *stamp.Store) *Controller {
	return &Controller{store: store}
}

// PointerDown starts dragging a placement. Pressing a different placement
// while dragging simply moves the selection.
func (c *Controller) PointerDown(id string) bool {
	if _, ok := c.store.Get(id); !ok {
		return false
	}
	c.state = Dragging
	c.active = id
	return true
}

// PointerMove recenters the active placement's bounding box under the pointer.
func (c *Controller) PointerMove(p Point, vp Viewport) bool {
	if c.state != Dragging {
		return false
	}
	pl, ok := c.store.Get(c.active)
	if !ok {
		c.reset()
		return false
	}
	px, py := vp.ToPage(p)
	return c.store.UpdatePosition(pl.ID, px-pl.Size/2, py-pl.Size/2)
}

// PointerUp ends any drag, wherever the pointer is.
func (c *Controller) PointerUp() {
	c.reset()
}

// DeletePressed removes a placement from its delete control. The gesture
// never starts a drag.
func (c *Controller) DeletePressed(id string) bool {
	if c.active == id {
		c.reset()
	}
	return c.store.Remove(id)
}

// Active returns the selected placement id, if any.
func (c *Controller) Active() (string, bool) {
	return c.active, c.state == Dragging
}

// State returns the current drag state.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) reset() {
	c.state = Idle
	c.active = ""
}
