package view

import (
	"fmt"
	"sync"

	"github.com/ziadkadry99/tinytune/internal/fit"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// Element is a mounted filmstrip preview.
type Element struct {
	ID      string
	Natural fit.Size
}

// Placement is the applied display box of one element.
type Placement struct {
	ID string `json:"id"`
	fit.Result
}

// Style renders the display box as inline CSS for the preview strip.
func (p Placement) Style() string {
	return fmt.Sprintf("width:%gpx;height:%gpx", p.Width, p.Height)
}

// OverlayStyle positions the badge drawn over the visible frame.
func (p Placement) OverlayStyle() string {
	return fmt.Sprintf("right:%gpx", p.OverlayRight)
}

// View is one rendered grid: a page render or a live layout session. It
// owns the zoom level shown, the tile sizes, and the mounted previews, and
// keeps their fits current. Methods are safe for concurrent use.
type View struct {
	mu sync.Mutex
	st state
}

// state is the unlocked part of View; it serves as Resolver and Applier.
type state struct {
	level     zoom.Level
	tiles     TileTable
	container *fit.Size // client reported, overrides the tile table
	natural   map[string]fit.Size
	applied   map[string]fit.Result
	order     []string
}

func (s *state) containerSize() fit.Size {
	if s.container != nil {
		return *s.container
	}
	return s.tiles.Size(s.level)
}

func (s *state) Resolve(id string) (fit.Size, fit.Size, bool) {
	n, ok := s.natural[id]
	if !ok {
		return fit.Size{}, fit.Size{}, false
	}
	return n, s.containerSize(), true
}

func (s *state) Apply(id string, r fit.Result) {
	s.applied[id] = r
}

func (s *state) calculator() *fit.Calculator {
	return &fit.Calculator{Resolver: s, Applier: s}
}

func (s *state) recompute() []Placement {
	s.calculator().ComputeAll(s.order)
	return s.placements()
}

func (s *state) placements() []Placement {
	out := make([]Placement, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.applied[id]; ok {
			out = append(out, Placement{ID: id, Result: r})
		}
	}
	return out
}

// New creates an empty view at level.
func New(level zoom.Level, tiles TileTable) *View {
	if tiles == nil {
		tiles = DefaultTiles()
	}
	return &View{st: state{
		level:   level,
		tiles:   tiles,
		natural: make(map[string]fit.Size),
		applied: make(map[string]fit.Result),
	}}
}

// Level returns the zoom level the view is rendered at.
func (v *View) Level() zoom.Level {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st.level
}

// Container returns the size every element is fitted into.
func (v *View) Container() fit.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st.containerSize()
}

// Mount adds an element and fits it, like an image finishing its load.
func (v *View) Mount(el Element) (Placement, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.st.natural[el.ID]; !exists {
		v.st.order = append(v.st.order, el.ID)
	}
	v.st.natural[el.ID] = el.Natural
	v.st.calculator().ComputeFit(el.ID)
	r, ok := v.st.applied[el.ID]
	return Placement{ID: el.ID, Result: r}, ok
}

// Unmount removes an element and its fit.
func (v *View) Unmount(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.st.natural[id]; !ok {
		return
	}
	delete(v.st.natural, id)
	delete(v.st.applied, id)
	for i, o := range v.st.order {
		if o == id {
			v.st.order = append(v.st.order[:i], v.st.order[i+1:]...)
			break
		}
	}
}

// Swap replaces every mounted element, as after a partial page refresh, and
// refits the new set.
func (v *View) Swap(els []Element) []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.st.natural = make(map[string]fit.Size, len(els))
	v.st.applied = make(map[string]fit.Result, len(els))
	v.st.order = v.st.order[:0]
	for _, el := range els {
		if _, dup := v.st.natural[el.ID]; dup {
			continue
		}
		v.st.natural[el.ID] = el.Natural
		v.st.order = append(v.st.order, el.ID)
	}
	return v.st.recompute()
}

// SetLevel moves the view to level and refits everything. It has the shape
// of zoom.Controller.Recompute.
func (v *View) SetLevel(level zoom.Level) []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.st.level = level
	// A client override was measured at the old level.
	v.st.container = nil
	return v.st.recompute()
}

// Resize records a client-measured container size and refits everything.
// Non-positive sizes clear the override.
func (v *View) Resize(container fit.Size) []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()

	if container.Width > 0 && container.Height > 0 {
		v.st.container = &container
	} else {
		v.st.container = nil
	}
	return v.st.recompute()
}

// Recompute refits every mounted element.
func (v *View) Recompute() []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st.recompute()
}

// Fit refits a single element. ok is false if it is not mounted.
func (v *View) Fit(id string) (Placement, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, mounted := v.st.natural[id]; !mounted {
		return Placement{}, false
	}
	v.st.calculator().ComputeFit(id)
	return Placement{ID: id, Result: v.st.applied[id]}, true
}

// Placements returns the last applied fits in mount order.
func (v *View) Placements() []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st.placements()
}

// Placement returns the last applied fit of one element.
func (v *View) Placement(id string) (Placement, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.st.applied[id]
	return Placement{ID: id, Result: r}, ok
}

// Styles returns the inline style of every fitted element keyed by id.
func (v *View) Styles() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.st.applied))
	for id, r := range v.st.applied {
		out[id] = Placement{ID: id, Result: r}.Style()
	}
	return out
}
