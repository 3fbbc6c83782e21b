package waktunya

import (
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Location is an advisory latitude/longitude pair. Upstream may send
// coarse or zero coordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Visitor is one remote peer currently present in the room. JoinedAt is
// the local observation time of the join message, not the peer's true
// connect time.
type Visitor struct {
	ID       string    `json:"id"`
	Location Location  `json:"location"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Registry is the single source of truth for who is currently present.
// It keeps visitors in join order and maintains the active count
// incrementally. The count must equal the registry cardinality at all
// times. The registry is owned by the Tracker and must only be mutated
// from its inbox.
type Registry struct {
	visitors *linkedhashmap.Map
	active   int
}

func NewRegistry() *Registry {
	return &Registry{
		visitors: linkedhashmap.New(),
	}
}

// Join inserts or overwrites the visitor keyed by id. A duplicate join
// silently refreshes JoinedAt and does not change the count. Reports
// whether the visitor was previously absent.
func (r *Registry) Join(id string, loc Location, at time.Time) bool {
	_, present := r.visitors.Get(id)
	if present {
		// re-insert so join order reflects the latest observation
		r.visitors.Remove(id)
	}
	r.visitors.Put(id, Visitor{ID: id, Location: loc, JoinedAt: at})
	if !present {
		r.active++
	}
	return !present
}

// Leave removes the visitor keyed by id. Removing an absent id is a
// no-op. Reports whether a removal actually happened.
func (r *Registry) Leave(id string) bool {
	if _, present := r.visitors.Get(id); !present {
		return false
	}
	r.visitors.Remove(id)
	r.active--
	return true
}

// Count returns the incrementally maintained active count.
func (r *Registry) Count() int {
	return r.active
}

// Cardinality recomputes the count from the underlying map. Used by
// tests to check that Count never diverges.
func (r *Registry) Cardinality() int {
	return r.visitors.Size()
}

func (r *Registry) Clear() {
	r.visitors.Clear()
	r.active = 0
}

// Snapshot returns the visitors in join order.
func (r *Registry) Snapshot() []Visitor {
	res := make([]Visitor, 0, r.visitors.Size())
	for _, v := range r.visitors.Values() {
		res = append(res, v.(Visitor))
	}
	return res
}
