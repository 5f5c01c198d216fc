// Package cart holds the per-user authoritative mirror of the server-side
// cart. The mirror is a read-through cache: every mutation ends with a full
// refetch so totals and item lists stay server-computed. Optimistic merges
// are deliberately avoided; they drift from server-side discounts and stock
// clamps.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/internal/session"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type backendClient interface {
	FetchCart(ctx context.Context, token string) (*backend.Cart, error)
	AddItem(ctx context.Context, token, productID string, quantity int) error
	RemoveItem(ctx context.Context, token, productID string) error
}

// Snapshot is the mirrored cart state handed to readers. Items are copies;
// mutating a snapshot never touches the store.
type Snapshot struct {
	Items       []backend.CartItem
	TotalAmount decimal.Decimal
	Loaded      bool
}

// Count returns the sum of quantities across items.
func (s Snapshot) Count() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// Quantity returns the quantity mirrored for a product, zero when absent.
func (s Snapshot) Quantity(productID string) int {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// Lines converts the snapshot into (product, quantity) pairs for quoting.
func (s Snapshot) Lines() []Line {
	lines := make([]Line, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// Line is one (product, quantity) pair.
type Line struct {
	ProductID string
	Quantity  int
}

// Store is the single-writer cart mirror for one user session. All mutation
// goes through its operations; concurrent logical mutations are serialized
// by the store but callers should still await one mutation before issuing
// the next, or the final server state depends on arrival order.
type Store struct {
	client backendClient
	logg   *logger.Logger

	mu      sync.RWMutex
	current Snapshot
}

// NewStore builds a cart store for one user.
func NewStore(client backendClient, logg *logger.Logger) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{client: client, logg: logg}, nil
}

// Snapshot returns the current mirrored state without touching the backend.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.current)
}

// Refresh loads the full cart from the backend. On failure the mirror resets
// to an empty cart and the failure is returned to the caller; readers never
// see a half-updated mirror.
func (s *Store) Refresh(ctx context.Context, sess *session.Session) (Snapshot, error) {
	if sess == nil {
		s.reset()
		return Snapshot{}, session.ErrNoSession()
	}

	cart, err := s.client.FetchCart(ctx, sess.Token)
	if err != nil {
		s.reset()
		return Snapshot{}, err
	}

	snap := Snapshot{
		Items:       append([]backend.CartItem(nil), cart.Items...),
		TotalAmount: cart.TotalAmount,
		Loaded:      true,
	}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return copySnapshot(snap), nil
}

// AddItem adds quantity of a product, then refetches the authoritative cart.
// Re-adding an existing product updates its quantity server-side; the mirror
// never holds duplicate lines for one product.
func (s *Store) AddItem(ctx context.Context, sess *session.Session, productID string, quantity int) (Snapshot, error) {
	if sess == nil {
		return s.Snapshot(), session.ErrNoSession()
	}
	if productID == "" {
		return s.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return s.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if err := s.client.AddItem(ctx, sess.Token, productID, quantity); err != nil {
		return s.Snapshot(), err
	}
	return s.Refresh(ctx, sess)
}

// UpdateQuantity sets a product's quantity via a remove-then-add compensating
// sequence; there is no atomic update endpoint. Quantities below 1 are a
// no-op: decreasing to zero goes through RemoveItem, not this path. The cart
// is refetched regardless of which step failed so the mirror cannot diverge
// from the server.
func (s *Store) UpdateQuantity(ctx context.Context, sess *session.Session, productID string, newQuantity int) (Snapshot, error) {
	if sess == nil {
		return s.Snapshot(), session.ErrNoSession()
	}
	if newQuantity < 1 {
		return s.Snapshot(), nil
	}

	removeErr := s.client.RemoveItem(ctx, sess.Token, productID)
	if removeErr != nil && !pkgerrors.IsCode(removeErr, pkgerrors.CodeNotFound) {
		snap, refreshErr := s.Refresh(ctx, sess)
		return snap, multierr.Append(removeErr, refreshErr)
	}

	addErr := s.client.AddItem(ctx, sess.Token, productID, newQuantity)
	snap, refreshErr := s.Refresh(ctx, sess)
	if addErr != nil {
		// The remove already landed; the user's line is gone until they retry.
		combined := multierr.Append(addErr, refreshErr)
		return snap, pkgerrors.Wrap(pkgerrors.CodeInconsistent, combined, "quantity update partially applied").
			WithDetails(map[string]string{"product_id": productID})
	}
	return snap, refreshErr
}

// RemoveItem deletes a product line, then refetches. Removing an absent
// product is a no-op; the cart stays fetchable either way.
func (s *Store) RemoveItem(ctx context.Context, sess *session.Session, productID string) (Snapshot, error) {
	if sess == nil {
		return s.Snapshot(), session.ErrNoSession()
	}

	if err := s.client.RemoveItem(ctx, sess.Token, productID); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		snap, refreshErr := s.Refresh(ctx, sess)
		return snap, multierr.Append(err, refreshErr)
	}
	return s.Refresh(ctx, sess)
}

// Count returns the badge count. Without a session it is 0, never an error.
func (s *Store) Count(ctx context.Context, sess *session.Session) (int, error) {
	if sess == nil {
		return 0, nil
	}
	snap := s.Snapshot()
	if !snap.Loaded {
		refreshed, err := s.Refresh(ctx, sess)
		if err != nil {
			return 0, err
		}
		snap = refreshed
	}
	return snap.Count(), nil
}

func (s *Store) reset() {
	s.mu.Lock()
	s.current = Snapshot{}
	s.mu.Unlock()
}

func copySnapshot(snap Snapshot) Snapshot {
	return Snapshot{
		Items:       append([]backend.CartItem(nil), snap.Items...),
		TotalAmount: snap.TotalAmount,
		Loaded:      snap.Loaded,
	}
}
