package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/internal/cart"
	"github.com/aureliajewels/storefront/internal/session"
	"github.com/aureliajewels/storefront/internal/shipping"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Phase is the checkout session's state machine position.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseEstimating      Phase = "estimating"
	PhaseEstimateSettled Phase = "estimate_settled"
	PhaseSubmitting      Phase = "submitting"
	PhasePlaced          Phase = "placed"
)

// View is the checkout state exposed to the presentation layer.
type View struct {
	Phase        Phase
	Country      string
	Currency     string
	Quote        shipping.Quote
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
	TotalPending bool
	CanSubmit    bool
	Confirmation *backend.OrderConfirmation
}

// flow is one user's checkout session. Its mutex serializes the state
// machine; the estimator's own sequence guard handles racing estimates.
type flow struct {
	svc *service

	mu           sync.Mutex
	phase        Phase
	country      string
	currency     string
	estimator    *shipping.Estimator
	cartStore    *cart.Store
	confirmation *backend.OrderConfirmation
}

func (f *flow) phaseIs(phase Phase) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase == phase
}

func (f *flow) resetEstimator(estimator *shipping.Estimator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimator = estimator
}

// begin resets the flow: loads the cart, detects the destination, and runs
// the first estimation. Geo detection is advisory; any failure falls back
// to the configured country and never blocks the flow.
func (f *flow) begin(ctx context.Context, sess *session.Session, clientIP string) (View, error) {
	f.mu.Lock()
	f.phase = PhaseIdle
	f.confirmation = nil
	f.currency = f.svc.defaultCurrency
	f.mu.Unlock()

	snap, err := f.cartStore.Refresh(ctx, sess)
	if err != nil {
		return f.view(), err
	}
	if len(snap.Items) == 0 {
		return f.view(), pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	country := f.svc.fallbackCountry
	if detected, err := f.svc.geo.DetectCountry(ctx, clientIP); err == nil && detected != "" {
		country = detected
	} else if err != nil {
		f.svc.logg.Warn(f.svc.logg.WithField(ctx, "client_ip", clientIP), "geo detection failed, using fallback country")
	}

	f.mu.Lock()
	f.country = country
	f.mu.Unlock()

	return f.estimate(ctx, sess)
}

// setCountry switches the destination and re-estimates; the prior quote is
// stale the moment the country changes.
func (f *flow) setCountry(ctx context.Context, sess *session.Session, country string) (View, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) != 2 {
		return f.view(), pkgerrors.New(pkgerrors.CodeValidation, "country must be a two-letter code")
	}
	f.mu.Lock()
	if f.phase == PhaseIdle {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout not started")
	}
	if f.phase == PhasePlaced || f.phase == PhaseSubmitting {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted")
	}
	f.country = country
	f.mu.Unlock()
	return f.estimate(ctx, sess)
}

// setCurrency switches the display currency and re-estimates.
func (f *flow) setCurrency(ctx context.Context, sess *session.Session, currency string) (View, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return f.view(), pkgerrors.New(pkgerrors.CodeValidation, "currency must be a three-letter code")
	}
	f.mu.Lock()
	if f.phase == PhaseIdle {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout not started")
	}
	if f.phase == PhasePlaced || f.phase == PhaseSubmitting {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitted")
	}
	f.currency = currency
	f.mu.Unlock()
	return f.estimate(ctx, sess)
}

// current returns the view, re-estimating first when the cart contents have
// drifted from the triple the active quote was computed for.
func (f *flow) current(ctx context.Context, sess *session.Session) (View, error) {
	f.mu.Lock()
	phase := f.phase
	f.mu.Unlock()
	if phase == PhaseIdle {
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout not started")
	}
	if phase == PhasePlaced || phase == PhaseSubmitting {
		return f.view(), nil
	}

	snap := f.cartStore.Snapshot()
	f.mu.Lock()
	input := f.inputFor(snap)
	f.mu.Unlock()
	if !f.estimator.Current().Input.Equal(input) {
		return f.estimate(ctx, sess)
	}
	return f.view(), nil
}

// submit places the order. Gating is client-side first: an unavailable or
// unsettled quote rejects before any backend call is made.
func (f *flow) submit(ctx context.Context, sess *session.Session, address types.Address, paymentMethod string) (View, error) {
	f.mu.Lock()
	if f.phase == PhasePlaced {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed")
	}
	if f.phase != PhaseEstimateSettled {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not ready to submit")
	}

	quote := f.estimator.Current()
	switch quote.State {
	case shipping.StateReady:
		// proceed
	case shipping.StateUnavailable:
		f.mu.Unlock()
		f.svc.metrics.IncOrderOutcome("blocked_unavailable")
		return f.view(), pkgerrors.New(pkgerrors.CodeUnavailable, "we cannot ship to this destination, order was not submitted")
	default:
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeStateConflict, "shipping cost is not finalized yet")
	}

	if !strings.EqualFold(address.Country, f.country) {
		f.mu.Unlock()
		return f.view(), pkgerrors.New(pkgerrors.CodeValidation, "shipping address country does not match the quoted destination")
	}

	f.phase = PhaseSubmitting
	f.mu.Unlock()

	confirmation, err := f.svc.orders.SubmitOrder(ctx, sess.Token, backend.OrderRequest{
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		// Cart and estimate are preserved; the user retries without
		// re-entering anything.
		f.phase = PhaseEstimateSettled
		f.svc.metrics.IncOrderOutcome("rejected")
		return f.viewLocked(), err
	}
	f.phase = PhasePlaced
	f.confirmation = confirmation
	f.svc.metrics.IncOrderOutcome("placed")
	return f.viewLocked(), nil
}

func (f *flow) estimate(ctx context.Context, sess *session.Session) (View, error) {
	snap := f.cartStore.Snapshot()
	if !snap.Loaded {
		refreshed, err := f.cartStore.Refresh(ctx, sess)
		if err != nil {
			return f.view(), err
		}
		snap = refreshed
	}

	f.mu.Lock()
	f.phase = PhaseEstimating
	input := f.inputFor(snap)
	f.mu.Unlock()

	f.estimator.Estimate(ctx, sess, input)

	f.mu.Lock()
	if f.phase == PhaseEstimating {
		f.phase = PhaseEstimateSettled
	}
	view := f.viewLocked()
	f.mu.Unlock()
	return view, nil
}

func (f *flow) inputFor(snap cart.Snapshot) shipping.Input {
	lines := make([]types.CartLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, types.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return shipping.Input{Country: f.country, Currency: f.currency, Lines: lines}
}

func (f *flow) view() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// viewLocked computes the exposed totals. The order total includes shipping
// only when the quote is ready; while loading the total is flagged pending
// instead of silently assuming zero shipping.
func (f *flow) viewLocked() View {
	snap := f.cartStore.Snapshot()
	quote := f.estimator.Current()

	view := View{
		Phase:        f.phase,
		Country:      f.country,
		Currency:     f.currency,
		Quote:        quote,
		Subtotal:     snap.TotalAmount,
		Total:        snap.TotalAmount,
		Confirmation: f.confirmation,
	}

	switch quote.State {
	case shipping.StateReady:
		view.Total = snap.TotalAmount.Add(quote.Cost)
		view.CanSubmit = f.phase == PhaseEstimateSettled
	case shipping.StateLoading:
		view.TotalPending = true
	}
	return view
}
