package cart

import (
	"fmt"
	"sync"

	"github.com/aureliajewels/storefront/pkg/logger"
)

// Registry hands out one Store per user, created lazily on first use.
type Registry struct {
	client backendClient
	logg   *logger.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry builds the per-user store registry.
func NewRegistry(client backendClient, logg *logger.Logger) (*Registry, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{
		client: client,
		logg:   logg,
		stores: map[string]*Store{},
	}, nil
}

// ForUser returns the user's cart store, creating it on first access.
func (r *Registry) ForUser(userID string) (*Store, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[userID]; ok {
		return store, nil
	}
	store, err := NewStore(r.client, r.logg)
	if err != nil {
		return nil, err
	}
	r.stores[userID] = store
	return store, nil
}
