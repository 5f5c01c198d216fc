package session

import (
	"fmt"
	"sync"
)

// Registry hands out one ProfileStore per user, created lazily.
type Registry struct {
	client profileClient

	mu     sync.Mutex
	stores map[string]*ProfileStore
}

// NewRegistry builds the per-user profile store registry.
func NewRegistry(client profileClient) (*Registry, error) {
	if client == nil {
		return nil, fmt.Errorf("profile client required")
	}
	return &Registry{client: client, stores: map[string]*ProfileStore{}}, nil
}

// ForUser returns the user's profile store, creating it on first access.
func (r *Registry) ForUser(userID string) (*ProfileStore, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[userID]; ok {
		return store, nil
	}
	store, err := NewProfileStore(r.client)
	if err != nil {
		return nil, err
	}
	r.stores[userID] = store
	return store, nil
}
