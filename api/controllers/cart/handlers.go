package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aureliajewels/storefront/api/middleware"
	"github.com/aureliajewels/storefront/api/responses"
	"github.com/aureliajewels/storefront/api/validators"
	cartsvc "github.com/aureliajewels/storefront/internal/cart"
	"github.com/aureliajewels/storefront/internal/session"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
)

// storeForRequest resolves the caller's cart store from the registry.
func storeForRequest(registry *cartsvc.Registry, r *http.Request) (*cartsvc.Store, *session.Session, error) {
	sess := middleware.SessionFromRequest(r)
	if sess == nil {
		return nil, nil, session.ErrNoSession()
	}
	store, err := registry.ForUser(sess.UserID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cart store")
	}
	return store, sess, nil
}

// Fetch loads the authoritative cart for the caller.
func Fetch(registry *cartsvc.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := store.Refresh(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(snap))
	}
}

// Add adds an item and returns the refetched cart.
func Add(registry *cartsvc.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.AddItem(r.Context(), sess, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(snap))
	}
}

// UpdateQuantity replaces a line's quantity via remove-then-add.
func UpdateQuantity(registry *cartsvc.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.UpdateQuantity(r.Context(), sess, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(snap))
	}
}

// Remove deletes a line and returns the refetched cart.
func Remove(registry *cartsvc.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		snap, err := store.RemoveItem(r.Context(), sess, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(snap))
	}
}

// Count serves the badge count. Unauthenticated callers get 0, not an error.
func Count(registry *cartsvc.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromRequest(r)
		if sess == nil {
			responses.WriteSuccess(w, countView{Count: 0})
			return
		}

		store, err := registry.ForUser(sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cart store"))
			return
		}

		count, err := store.Count(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, countView{Count: count})
	}
}
