// Package registry maps client ids to their account workers. Exactly one
// worker is ever created per client id; entries are never removed.
package registry

import (
	"sort"
	"sync"

	"github.com/chenzhangda16/payments-engine/internal/engine/worker"
)

// Factory builds the worker of a client seen for the first time.
type Factory func(client uint16) *worker.Worker

type Registry struct {
	mu      sync.RWMutex
	workers map[uint16]*worker.Worker
	factory Factory
}

func New(factory Factory) *Registry {
	return &Registry{
		workers: make(map[uint16]*worker.Worker),
		factory: factory,
	}
}

// GetOrCreate returns the client's worker; created is true for the single
// caller that inserted it.
func (r *Registry) GetOrCreate(client uint16) (w *worker.Worker, created bool) {
	r.mu.RLock()
	w, ok := r.workers[client]
	r.mu.RUnlock()
	if ok {
		return w, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// double check: another caller may have won the race
	if w, ok := r.workers[client]; ok {
		return w, false
	}
	w = r.factory(client)
	r.workers[client] = w
	return w, true
}

func (r *Registry) Get(client uint16) (*worker.Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[client]
	return w, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Each visits the workers in ascending client id order.
func (r *Registry) Each(fn func(w *worker.Worker)) {
	for _, w := range r.sorted() {
		fn(w)
	}
}

func (r *Registry) sorted() []*worker.Worker {
	r.mu.RLock()
	out := make([]*worker.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Client() < out[j].Client() })
	return out
}
