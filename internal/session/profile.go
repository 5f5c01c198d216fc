package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/pkg/types"
)

type profileClient interface {
	FetchProfile(ctx context.Context, token string) (*backend.Profile, error)
	UpdateProfile(ctx context.Context, token string, profile backend.Profile) (*backend.Profile, error)
}

// ProfileStore caches the user's profile and refreshes it in place after
// mutations, replacing the original full-page-reload synchronization.
type ProfileStore struct {
	client profileClient

	mu      sync.RWMutex
	profile *backend.Profile
}

// NewProfileStore builds a profile store around the backend client.
func NewProfileStore(client profileClient) (*ProfileStore, error) {
	if client == nil {
		return nil, fmt.Errorf("profile client required")
	}
	return &ProfileStore{client: client}, nil
}

// Current returns the cached profile, or nil when never loaded.
func (p *ProfileStore) Current() *backend.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return nil
	}
	copied := *p.profile
	return &copied
}

// Refresh refetches the profile and replaces the cached copy.
func (p *ProfileStore) Refresh(ctx context.Context, sess *Session) (*backend.Profile, error) {
	if sess == nil {
		return nil, ErrNoSession()
	}
	profile, err := p.client.FetchProfile(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.profile = profile
	p.mu.Unlock()
	return p.Current(), nil
}

// UpdateAddress replaces the profile's address. The whole profile is written
// back (full-replace contract) and then refreshed from the backend so the
// cache never holds an unconfirmed local guess.
func (p *ProfileStore) UpdateAddress(ctx context.Context, sess *Session, address types.Address) (*backend.Profile, error) {
	if sess == nil {
		return nil, ErrNoSession()
	}

	current := p.Current()
	if current == nil {
		fetched, err := p.Refresh(ctx, sess)
		if err != nil {
			return nil, err
		}
		current = fetched
	}

	updated := *current
	updated.Address = &address
	if _, err := p.client.UpdateProfile(ctx, sess.Token, updated); err != nil {
		return nil, err
	}
	return p.Refresh(ctx, sess)
}
