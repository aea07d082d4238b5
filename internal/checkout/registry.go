package checkout

import "sync"

// Registry tracks at most one live flow per user so the HTTP layer can
// resume a checkout across requests. Flows are transient: they are never
// persisted and are evicted on completion or cancellation.
type Registry struct {
	mu    sync.Mutex
	flows map[int64]*Flow
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{flows: make(map[int64]*Flow)}
}

// Get returns the live flow for a user, if any
func (r *Registry) Get(userID int64) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[userID]
	return f, ok
}

// Put registers a user's flow, replacing any previous one
func (r *Registry) Put(userID int64, f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[userID] = f
}

// Remove cancels and evicts a user's flow
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	f, ok := r.flows[userID]
	delete(r.flows, userID)
	r.mu.Unlock()

	if ok {
		f.Cancel()
	}
}
