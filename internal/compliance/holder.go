package compliance

import "sync/atomic"

// Holder publishes the active catalog. Reloads replace the whole catalog
// pointer; catalogs are never edited in place.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder creates a holder seeded with c
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Load returns the active catalog
func (h *Holder) Load() *Catalog {
	return h.current.Load()
}

// Swap installs c and returns the previous catalog. A nil catalog is ignored.
func (h *Holder) Swap(c *Catalog) *Catalog {
	if c == nil {
		return h.current.Load()
	}
	return h.current.Swap(c)
}
