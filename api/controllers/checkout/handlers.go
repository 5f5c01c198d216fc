package checkout

import (
	"net"
	"net/http"
	"strings"

	"github.com/aureliajewels/storefront/api/middleware"
	"github.com/aureliajewels/storefront/api/responses"
	"github.com/aureliajewels/storefront/api/validators"
	checkoutsvc "github.com/aureliajewels/storefront/internal/checkout"
	"github.com/aureliajewels/storefront/pkg/logger"
)

// Begin starts (or restarts) the caller's checkout flow.
func Begin(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)
		view, err := svc.Begin(r.Context(), sess, clientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(view))
	}
}

// Current returns the checkout state, re-estimating when the cart drifted.
func Current(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)
		view, err := svc.Current(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(view))
	}
}

// SetDestination switches the destination country and re-estimates.
func SetDestination(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)

		var payload SetDestinationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetCountry(r.Context(), sess, payload.Country)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(view))
	}
}

// SetCurrency switches the quoted currency and re-estimates.
func SetCurrency(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)

		var payload SetCurrencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetCurrency(r.Context(), sess, payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(view))
	}
}

// Submit places the order when the shipping quote allows it.
func Submit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)

		var payload SubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Submit(r.Context(), sess, payload.ShippingAddress, payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutView(view))
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
