package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/aureliajewels/storefront/internal/backend"
	cartsvc "github.com/aureliajewels/storefront/internal/cart"
	"github.com/aureliajewels/storefront/internal/session"
	"github.com/aureliajewels/storefront/internal/shipping"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// checkoutBackend fakes the commerce backend end to end: cart, shipping
// estimation, geo detection, and order submission.
type checkoutBackend struct {
	mu     sync.Mutex
	items  map[string]backend.CartItem
	order  []string
	prices map[string]decimal.Decimal

	estimates     map[string]map[string]string // country -> currency -> cost
	estimateErrs  map[string]error
	estimateCalls int

	detectedCountry string
	detectErr       error

	submitErr   error
	submitCalls int
	lastOrder   backend.OrderRequest
}

func newCheckoutBackend() *checkoutBackend {
	return &checkoutBackend{
		items: map[string]backend.CartItem{},
		prices: map[string]decimal.Decimal{
			"necklace-2": decimal.RequireFromString("450.00"),
			"ring-1":     decimal.RequireFromString("120.00"),
		},
		estimates:       map[string]map[string]string{},
		estimateErrs:    map[string]error{},
		detectedCountry: "US",
	}
}

func (f *checkoutBackend) seed(productID string, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[productID] = backend.CartItem{ProductID: productID, Quantity: quantity, Price: f.prices[productID]}
	f.order = append(f.order, productID)
}

func (f *checkoutBackend) quote(country, currency, cost string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.estimates[country] == nil {
		f.estimates[country] = map[string]string{}
	}
	f.estimates[country][currency] = cost
}

func (f *checkoutBackend) FetchCart(ctx context.Context, token string) (*backend.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart := &backend.Cart{TotalAmount: decimal.Zero}
	for _, id := range f.order {
		item := f.items[id]
		cart.Items = append(cart.Items, item)
		cart.TotalAmount = cart.TotalAmount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return cart, nil
}

func (f *checkoutBackend) AddItem(ctx context.Context, token, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.items[productID]; ok {
		existing.Quantity += quantity
		f.items[productID] = existing
		return nil
	}
	f.items[productID] = backend.CartItem{ProductID: productID, Quantity: quantity, Price: f.prices[productID]}
	f.order = append(f.order, productID)
	return nil
}

func (f *checkoutBackend) RemoveItem(ctx context.Context, token, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "not in cart")
	}
	delete(f.items, productID)
	for i, id := range f.order {
		if id == productID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *checkoutBackend) EstimateShipping(ctx context.Context, token string, req backend.EstimateRequest) (*backend.EstimateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimateCalls++
	if err := f.estimateErrs[req.CountryCode]; err != nil {
		return nil, err
	}
	costs, ok := f.estimates[req.CountryCode]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "no rates for destination")
	}
	resp := &backend.EstimateResponse{
		ShippingCost:  map[string]decimal.Decimal{},
		EstimatedDays: &types.EstimatedDays{Min: 2, Max: 5},
	}
	for currency, cost := range costs {
		resp.ShippingCost[currency] = decimal.RequireFromString(cost)
	}
	return resp, nil
}

func (f *checkoutBackend) DetectCountry(ctx context.Context, clientIP string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detectErr != nil {
		return "", f.detectErr
	}
	return f.detectedCountry, nil
}

func (f *checkoutBackend) SubmitOrder(ctx context.Context, token string, req backend.OrderRequest) (*backend.OrderConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastOrder = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &backend.OrderConfirmation{OrderID: "ord-123", Status: "confirmed"}, nil
}

func (f *checkoutBackend) submitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

func testService(t *testing.T, fake *checkoutBackend) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})

	carts, err := cartsvc.NewRegistry(fake, logg)
	if err != nil {
		t.Fatalf("unexpected error building cart registry: %v", err)
	}

	svc, err := NewService(ServiceParams{
		Logger: logg,
		Carts:  carts,
		Orders: fake,
		Geo:    fake,
		NewEstimator: func() (*shipping.Estimator, error) {
			return shipping.NewEstimator(fake, logg, nil, "fastest", 0)
		},
		FallbackCountry: "US",
		DefaultCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func checkoutSession() *session.Session {
	return &session.Session{Token: "token", UserID: "user-1"}
}

func usAddress() types.Address {
	return types.Address{Line1: "1 Main St", City: "Portland", PostalCode: "97201", Country: "US"}
}

func TestBeginTotalsIncludeShipping(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)

	view, err := svc.Begin(context.Background(), checkoutSession(), "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Phase != PhaseEstimateSettled {
		t.Fatalf("expected settled phase, got %s", view.Phase)
	}
	if view.Country != "US" {
		t.Fatalf("expected detected country US, got %s", view.Country)
	}
	if want := decimal.RequireFromString("450.00"); !view.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, view.Subtotal)
	}
	if want := decimal.RequireFromString("485.00"); !view.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, view.Total)
	}
	if !view.CanSubmit {
		t.Fatal("expected submit allowed with a ready quote")
	}
}

func TestBeginEmptyCart(t *testing.T) {
	t.Parallel()

	svc := testService(t, newCheckoutBackend())

	_, err := svc.Begin(context.Background(), checkoutSession(), "203.0.113.7")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestBeginWithoutSession(t *testing.T) {
	t.Parallel()

	svc := testService(t, newCheckoutBackend())

	_, err := svc.Begin(context.Background(), nil, "203.0.113.7")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestBeginGeoFailureUsesFallback(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("ring-1", 1)
	fake.detectErr = pkgerrors.New(pkgerrors.CodeDependency, "geo service down")
	fake.quote("US", "USD", "12.00")
	svc := testService(t, fake)

	view, err := svc.Begin(context.Background(), checkoutSession(), "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Country != "US" {
		t.Fatalf("expected fallback country US, got %s", view.Country)
	}
	if view.Quote.State != shipping.StateReady {
		t.Fatalf("geo failure must not block estimation, got state %s", view.Quote.State)
	}
}

func TestSetCountryUnavailableDestination(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()

	if _, err := svc.Begin(context.Background(), sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	view, err := svc.SetCountry(context.Background(), sess, "aq")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Country != "AQ" {
		t.Fatalf("expected normalized country AQ, got %s", view.Country)
	}
	if view.Quote.State != shipping.StateUnavailable {
		t.Fatalf("expected unavailable quote, got %s", view.Quote.State)
	}
	if view.CanSubmit {
		t.Fatal("submit must be blocked for an unavailable destination")
	}
	// Unavailable means no shipping line at all: the total stays the subtotal.
	if !view.Total.Equal(view.Subtotal) {
		t.Fatalf("expected total %s to equal subtotal %s", view.Total, view.Subtotal)
	}
}

func TestSubmitBlockedWithoutBackendCall(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()

	if _, err := svc.Begin(context.Background(), sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := svc.SetCountry(context.Background(), sess, "AQ"); err != nil {
		t.Fatalf("set country failed: %v", err)
	}

	_, err := svc.Submit(context.Background(), sess, types.Address{Line1: "x", City: "y", PostalCode: "z", Country: "AQ"}, "card")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if fake.submitted() != 0 {
		t.Fatalf("order submission must not reach the backend, got %d calls", fake.submitted())
	}
}

func TestSubmitPlacesOrder(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()

	if _, err := svc.Begin(context.Background(), sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	view, err := svc.Submit(context.Background(), sess, usAddress(), "card")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Phase != PhasePlaced {
		t.Fatalf("expected placed phase, got %s", view.Phase)
	}
	if view.Confirmation == nil || view.Confirmation.OrderID != "ord-123" {
		t.Fatalf("expected order confirmation, got %+v", view.Confirmation)
	}

	// A second submit on the placed flow is a conflict, not a double order.
	_, err = svc.Submit(context.Background(), sess, usAddress(), "card")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on resubmit, got %v", err)
	}
	if fake.submitted() != 1 {
		t.Fatalf("expected exactly one backend submission, got %d", fake.submitted())
	}
}

func TestSubmitRejectionKeepsEstimate(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()

	if _, err := svc.Begin(context.Background(), sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	fake.submitErr = pkgerrors.New(pkgerrors.CodeValidation, "payment declined")
	_, err := svc.Submit(context.Background(), sess, usAddress(), "card")
	if err == nil {
		t.Fatal("expected rejected submission to error")
	}

	view, err := svc.Current(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Phase != PhaseEstimateSettled {
		t.Fatalf("expected flow back in settled phase after rejection, got %s", view.Phase)
	}
	if !view.CanSubmit {
		t.Fatal("expected retry to remain possible after rejection")
	}

	fake.mu.Lock()
	fake.submitErr = nil
	fake.mu.Unlock()
	retried, err := svc.Submit(context.Background(), sess, usAddress(), "card")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retried.Phase != PhasePlaced {
		t.Fatalf("expected retry to place the order, got %s", retried.Phase)
	}
}

func TestSubmitAddressCountryMismatch(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()

	if _, err := svc.Begin(context.Background(), sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	addr := usAddress()
	addr.Country = "DE"
	_, err := svc.Submit(context.Background(), sess, addr, "card")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for mismatched country, got %v", err)
	}
	if fake.submitted() != 0 {
		t.Fatal("mismatched address must not reach the backend")
	}
}

func TestCurrentReestimatesAfterCartDrift(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	logg := logger.New(logger.Options{ServiceName: "test"})
	carts, err := cartsvc.NewRegistry(fake, logg)
	if err != nil {
		t.Fatalf("unexpected error building cart registry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger: logg,
		Carts:  carts,
		Orders: fake,
		Geo:    fake,
		NewEstimator: func() (*shipping.Estimator, error) {
			return shipping.NewEstimator(fake, logg, nil, "fastest", 0)
		},
		FallbackCountry: "US",
		DefaultCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	sess := checkoutSession()
	ctx := context.Background()

	if _, err := svc.Begin(ctx, sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// Mutate the cart through its store, as the cart endpoints would.
	store, err := carts.ForUser(sess.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.AddItem(ctx, sess, "ring-1", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	fake.mu.Lock()
	callsBefore := fake.estimateCalls
	fake.mu.Unlock()

	view, err := svc.Current(ctx, sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.mu.Lock()
	callsAfter := fake.estimateCalls
	fake.mu.Unlock()
	if callsAfter <= callsBefore {
		t.Fatal("expected cart drift to trigger a fresh estimate")
	}
	if want := decimal.RequireFromString("570.00"); !view.Subtotal.Equal(want) {
		t.Fatalf("expected updated subtotal %s, got %s", want, view.Subtotal)
	}
	if want := decimal.RequireFromString("605.00"); !view.Total.Equal(want) {
		t.Fatalf("expected updated total %s, got %s", want, view.Total)
	}
}

func TestSetCountryBeforeBegin(t *testing.T) {
	t.Parallel()

	// An empty cart would fail Begin's validation; switching the destination
	// first must not settle the flow and open a path to submission.
	fake := newCheckoutBackend()
	fake.quote("US", "USD", "12.00")
	svc := testService(t, fake)
	sess := checkoutSession()
	ctx := context.Background()

	_, err := svc.SetCountry(ctx, sess, "US")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict before begin, got %v", err)
	}

	fake.mu.Lock()
	estimates := fake.estimateCalls
	fake.mu.Unlock()
	if estimates != 0 {
		t.Fatalf("expected no estimation before begin, got %d calls", estimates)
	}

	_, err = svc.Submit(ctx, sess, usAddress(), "card")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected submit rejected before begin, got %v", err)
	}
	if fake.submitted() != 0 {
		t.Fatalf("no order may reach the backend before begin, got %d calls", fake.submitted())
	}
}

func TestSetCurrencyBeforeBegin(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	svc := testService(t, fake)

	_, err := svc.SetCurrency(context.Background(), checkoutSession(), "EUR")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict before begin, got %v", err)
	}
}

func TestCurrentBeforeBegin(t *testing.T) {
	t.Parallel()

	svc := testService(t, newCheckoutBackend())

	_, err := svc.Current(context.Background(), checkoutSession())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict before begin, got %v", err)
	}
}

func TestBeginAfterPlacedRestartsFlow(t *testing.T) {
	t.Parallel()

	fake := newCheckoutBackend()
	fake.seed("necklace-2", 1)
	fake.quote("US", "USD", "35.00")
	svc := testService(t, fake)
	sess := checkoutSession()
	ctx := context.Background()

	if _, err := svc.Begin(ctx, sess, "203.0.113.7"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := svc.Submit(ctx, sess, usAddress(), "card"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view, err := svc.Begin(ctx, sess, "203.0.113.7")
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if view.Phase != PhaseEstimateSettled {
		t.Fatalf("expected restarted flow to settle, got %s", view.Phase)
	}
	if view.Confirmation != nil {
		t.Fatal("expected confirmation cleared on restart")
	}
}
