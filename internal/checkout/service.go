// Package checkout composes the cart mirror and the shipping estimator into
// a submittable order total and owns the submit-eligibility decision.
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/internal/cart"
	"github.com/aureliajewels/storefront/internal/session"
	"github.com/aureliajewels/storefront/internal/shipping"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/metrics"
	"github.com/aureliajewels/storefront/pkg/types"
)

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, token string, req backend.OrderRequest) (*backend.OrderConfirmation, error)
}

type countryDetector interface {
	DetectCountry(ctx context.Context, clientIP string) (string, error)
}

type cartProvider interface {
	ForUser(userID string) (*cart.Store, error)
}

// EstimatorFactory builds a fresh estimator for each checkout flow.
type EstimatorFactory func() (*shipping.Estimator, error)

// Service drives per-user checkout flows.
type Service interface {
	Begin(ctx context.Context, sess *session.Session, clientIP string) (View, error)
	Current(ctx context.Context, sess *session.Session) (View, error)
	SetCountry(ctx context.Context, sess *session.Session, country string) (View, error)
	SetCurrency(ctx context.Context, sess *session.Session, currency string) (View, error)
	Submit(ctx context.Context, sess *session.Session, address types.Address, paymentMethod string) (View, error)
}

// ServiceParams wires the checkout service dependencies.
type ServiceParams struct {
	Logger          *logger.Logger
	Metrics         *metrics.CheckoutMetrics
	Carts           cartProvider
	Orders          orderSubmitter
	Geo             countryDetector
	NewEstimator    EstimatorFactory
	FallbackCountry string
	DefaultCurrency string
}

type service struct {
	logg            *logger.Logger
	metrics         *metrics.CheckoutMetrics
	carts           cartProvider
	orders          orderSubmitter
	geo             countryDetector
	newEstimator    EstimatorFactory
	fallbackCountry string
	defaultCurrency string

	mu    sync.Mutex
	flows map[string]*flow
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart provider required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if params.Geo == nil {
		return nil, fmt.Errorf("country detector required")
	}
	if params.NewEstimator == nil {
		return nil, fmt.Errorf("estimator factory required")
	}
	if params.FallbackCountry == "" {
		return nil, fmt.Errorf("fallback country required")
	}
	if params.DefaultCurrency == "" {
		return nil, fmt.Errorf("default currency required")
	}
	return &service{
		logg:            params.Logger,
		metrics:         params.Metrics,
		carts:           params.Carts,
		orders:          params.Orders,
		geo:             params.Geo,
		newEstimator:    params.NewEstimator,
		fallbackCountry: params.FallbackCountry,
		defaultCurrency: params.DefaultCurrency,
		flows:           map[string]*flow{},
	}, nil
}

func (s *service) flowFor(sess *session.Session) (*flow, error) {
	if sess == nil {
		return nil, session.ErrNoSession()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.flows[sess.UserID]; ok {
		return existing, nil
	}

	store, err := s.carts.ForUser(sess.UserID)
	if err != nil {
		return nil, err
	}
	estimator, err := s.newEstimator()
	if err != nil {
		return nil, err
	}
	created := &flow{
		svc:       s,
		phase:     PhaseIdle,
		currency:  s.defaultCurrency,
		estimator: estimator,
		cartStore: store,
	}
	s.flows[sess.UserID] = created
	return created, nil
}

func (s *service) Begin(ctx context.Context, sess *session.Session, clientIP string) (View, error) {
	f, err := s.flowFor(sess)
	if err != nil {
		return View{}, err
	}
	// A new Begin always restarts the flow, including after a placed order.
	if f.phaseIs(PhasePlaced) {
		estimator, err := s.newEstimator()
		if err != nil {
			return View{}, err
		}
		f.resetEstimator(estimator)
	}
	return f.begin(ctx, sess, clientIP)
}

func (s *service) Current(ctx context.Context, sess *session.Session) (View, error) {
	f, err := s.flowFor(sess)
	if err != nil {
		return View{}, err
	}
	return f.current(ctx, sess)
}

func (s *service) SetCountry(ctx context.Context, sess *session.Session, country string) (View, error) {
	f, err := s.flowFor(sess)
	if err != nil {
		return View{}, err
	}
	return f.setCountry(ctx, sess, country)
}

func (s *service) SetCurrency(ctx context.Context, sess *session.Session, currency string) (View, error) {
	f, err := s.flowFor(sess)
	if err != nil {
		return View{}, err
	}
	return f.setCurrency(ctx, sess, currency)
}

func (s *service) Submit(ctx context.Context, sess *session.Session, address types.Address, paymentMethod string) (View, error) {
	f, err := s.flowFor(sess)
	if err != nil {
		return View{}, err
	}
	return f.submit(ctx, sess, address, paymentMethod)
}
