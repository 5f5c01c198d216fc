// Package shipping turns a {country, currency, cart contents} triple into a
// cost/ETA quote or a definitive "unavailable" signal. Results are never
// persisted; a quote is valid only for the exact triple that produced it.
package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/internal/session"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/metrics"
	"github.com/aureliajewels/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// State is the estimator's three-way outcome plus the in-flight marker.
type State string

const (
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateUnavailable State = "unavailable"
	StateError       State = "error"
)

// Input is the triple a quote is keyed by.
type Input struct {
	Country  string
	Currency string
	Lines    []types.CartLine
}

// Equal reports whether two inputs describe the same triple, including item
// order; the cart mirror preserves server ordering so order is stable.
func (in Input) Equal(other Input) bool {
	if in.Country != other.Country || in.Currency != other.Currency {
		return false
	}
	if len(in.Lines) != len(other.Lines) {
		return false
	}
	for i := range in.Lines {
		if in.Lines[i] != other.Lines[i] {
			return false
		}
	}
	return true
}

// Quote is the estimator's current result.
type Quote struct {
	State         State
	Input         Input
	Cost          decimal.Decimal
	EstimatedDays *types.EstimatedDays
	// Message carries the human-readable reason for unavailable/error states.
	Message string
}

type estimateClient interface {
	EstimateShipping(ctx context.Context, token string, req backend.EstimateRequest) (*backend.EstimateResponse, error)
}

// Estimator supersedes, never queues: each call invalidates any in-flight
// estimation, and a response is applied only if its input triple is still
// the current one when it arrives.
type Estimator struct {
	client  estimateClient
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	speed   string
	markup  float64

	// guarded by the owning checkout session's lock via Estimate/Current
	// being called serially per user; seq still protects against concurrent
	// requests racing for the same user.
	state guardedState
}

// NewEstimator builds a shipping estimator.
func NewEstimator(client estimateClient, logg *logger.Logger, m *metrics.CheckoutMetrics, preferredSpeed string, markupPct float64) (*Estimator, error) {
	if client == nil {
		return nil, fmt.Errorf("estimate client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if preferredSpeed == "" {
		preferredSpeed = "fastest"
	}
	est := &Estimator{
		client:  client,
		logg:    logg,
		metrics: m,
		speed:   preferredSpeed,
		markup:  markupPct,
	}
	est.state.quote = Quote{State: StateLoading}
	return est, nil
}

// Current returns the latest applied quote.
func (e *Estimator) Current() Quote {
	return e.state.current()
}

// Estimate requests a quote for the given triple. The returned quote is the
// estimator's current state after this call settles: if a newer estimation
// started while this one was in flight, this result is discarded and the
// newer state is returned instead.
func (e *Estimator) Estimate(ctx context.Context, sess *session.Session, input Input) Quote {
	mySeq := e.state.begin(input)

	token := ""
	if sess != nil {
		token = sess.Token
	}

	started := time.Now()
	resp, err := e.client.EstimateShipping(ctx, token, backend.EstimateRequest{
		CountryCode: input.Country,
		Preferred:   e.speed,
		Currency:    input.Currency,
		MarkupPct:   e.markup,
		Items:       input.Lines,
	})
	e.metrics.ObserveEstimateDuration(input.Country, time.Since(started))

	quote := e.resolve(ctx, input, resp, err)

	applied, current := e.state.apply(mySeq, quote)
	if !applied {
		e.metrics.IncStaleDiscard()
		ctx = e.logg.WithCountry(ctx, input.Country)
		e.logg.Info(ctx, "discarded stale shipping estimate")
		return current
	}
	e.metrics.IncEstimateOutcome(string(quote.State))
	return current
}

func (e *Estimator) resolve(ctx context.Context, input Input, resp *backend.EstimateResponse, err error) Quote {
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnavailable) {
			return Quote{
				State:   StateUnavailable,
				Input:   input,
				Message: "shipping is not available for this destination",
			}
		}
		ctx = e.logg.WithCountry(ctx, input.Country)
		e.logg.Error(ctx, "shipping estimate failed", err)
		return Quote{
			State:   StateError,
			Input:   input,
			Message: "could not calculate shipping, please try again",
		}
	}

	cost, ok := resp.ShippingCost[input.Currency]
	if !ok {
		// Data contract violation: the backend quoted without the requested
		// currency. Resolve to zero and log loudly rather than guess a
		// conversion.
		ctx = e.logg.WithFields(ctx, map[string]any{
			"country":  input.Country,
			"currency": input.Currency,
		})
		e.logg.Warn(ctx, "shipping quote missing requested currency")
		cost = decimal.Zero
	}

	return Quote{
		State:         StateReady,
		Input:         input,
		Cost:          cost,
		EstimatedDays: resp.EstimatedDays,
	}
}
