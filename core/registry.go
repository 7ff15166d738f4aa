package core

import (
	"sync/atomic"

	"github.com/fieldsignals/beacon-simulator/model"
)

// Registry holds the full set of known beacons. The feed always delivers
// complete snapshots, so the only mutation is a wholesale replace: the new
// set is copied and swapped in behind an atomic pointer. Readers that hold
// a snapshot keep iterating over the old set; they never observe a mix of
// old and new entries.
type Registry struct {
	beacons atomic.Pointer[[]model.Beacon]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make([]model.Beacon, 0)
	r.beacons.Store(&empty)
	return r
}

// Replace overwrites the entire registry with the given beacons. The input
// is copied, so the caller may reuse its slice.
func (r *Registry) Replace(beacons []model.Beacon) {
	next := make([]model.Beacon, len(beacons))
	copy(next, beacons)
	r.beacons.Store(&next)
}

// Snapshot returns the current beacon set. The returned slice is immutable
// by convention: it is shared between all readers of this snapshot and must
// not be modified.
func (r *Registry) Snapshot() []model.Beacon {
	return *r.beacons.Load()
}

// Len returns the number of beacons currently registered.
func (r *Registry) Len() int {
	return len(*r.beacons.Load())
}
