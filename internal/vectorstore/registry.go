package vectorstore

import (
	"context"
	"sync"
)

// Registry hands out the collection for an owner, creating it on first use.
// Handles are cached for the life of the process; collections are never
// dropped.
type Registry struct {
	store Store

	mu      sync.Mutex
	handles map[string]Collection
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, handles: make(map[string]Collection)}
}

// GetOrCreate returns the owner's collection. The lock is held across the
// backend call so concurrent first requests share a single handle.
func (r *Registry) GetOrCreate(ctx context.Context, owner string) (Collection, error) {
	if err := ValidateOwner(owner); err != nil {
		return nil, err
	}
	name := CollectionName(owner)

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.handles[name]; ok {
		return c, nil
	}
	c, err := r.store.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	r.handles[name] = c
	return c, nil
}

func (r *Registry) Store() Store { return r.store }
