// Package registry remembers which devices have been seen since start.
package registry

import (
	"sort"
	"sync"
)

// Registry is an append-only set of device ids. It is safe for concurrent
// use.
type Registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func New() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

func (r *Registry) Seen(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[id]
	return ok
}

func (r *Registry) Record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[id] = struct{}{}
}

// Discover records id and reports whether it was new.
func (r *Registry) Discover(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// IDs returns the recorded ids sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.seen))
	for id := range r.seen {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}
