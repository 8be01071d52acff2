package thmap

// History is the undo stack of raster snapshots. The bottom entry is the
// state at load or creation and is never popped.
type History struct {
	snapshots []*Raster
}

// NewHistory starts a history whose sentinel entry is a copy of base.
func NewHistory(base *Raster) *History {
	return &History{snapshots: []*Raster{base.Clone()}}
}

// Push stores a deep copy of r.
func (h *History) Push(r *Raster) {
	h.snapshots = append(h.snapshots, r.Clone())
}

// Pop removes and returns the newest snapshot. It returns nil when only the
// sentinel entry remains.
func (h *History) Pop() *Raster {
	if len(h.snapshots) <= 1 {
		return nil
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots[len(h.snapshots)-1] = nil
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last
}

// Len returns the number of entries, including the sentinel.
func (h *History) Len() int {
	return len(h.snapshots)
}

// CanUndo reports whether Pop would return a snapshot.
func (h *History) CanUndo() bool {
	return len(h.snapshots) > 1
}
