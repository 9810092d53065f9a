package render

import "fmt"

// OverlayHandle is the tooltip layer owned by one mounted chart.
type OverlayHandle struct {
	ID    string
	Owner string

	registry *Overlays
}

// Release detaches the overlay. Releasing twice, or releasing a handle that
// has been superseded, is a no-op.
func (h *OverlayHandle) Release() {
	if h == nil || h.registry == nil {
		return
	}
	if cur, ok := h.registry.active[h.Owner]; ok && cur == h {
		delete(h.registry.active, h.Owner)
	}
	h.registry = nil
}

// Overlays tracks the live tooltip layers, at most one per chart. It is not
// safe for concurrent use; callers serialize access.
type Overlays struct {
	seq    int
	active map[string]*OverlayHandle
}

// NewOverlays returns an empty registry.
func NewOverlays() *Overlays {
	return &Overlays{active: make(map[string]*OverlayHandle)}
}

// Acquire releases owner's current overlay, if any, and hands out a new one.
func (o *Overlays) Acquire(owner string) *OverlayHandle {
	o.Release(owner)
	o.seq++
	h := &OverlayHandle{ID: fmt.Sprintf("%s-tooltip-%d", owner, o.seq), Owner: owner, registry: o}
	o.active[owner] = h
	return h
}

// Release drops owner's overlay; it is called when a chart unmounts.
func (o *Overlays) Release(owner string) {
	if h, ok := o.active[owner]; ok {
		h.Release()
	}
}

// Active returns the number of live overlays.
func (o *Overlays) Active() int {
	return len(o.active)
}
