package profile

import (
	"net/http"

	"github.com/aureliajewels/storefront/api/middleware"
	"github.com/aureliajewels/storefront/api/responses"
	"github.com/aureliajewels/storefront/api/validators"
	"github.com/aureliajewels/storefront/internal/backend"
	"github.com/aureliajewels/storefront/internal/session"
	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/types"
)

// UpdateAddressRequest replaces the profile's shipping address.
type UpdateAddressRequest struct {
	Address types.Address `json:"address" validate:"required"`
}

type profileView struct {
	UserID  string         `json:"user_id"`
	Email   string         `json:"email"`
	Name    string         `json:"name"`
	Address *types.Address `json:"address,omitempty"`
}

func newProfileView(p *backend.Profile) profileView {
	if p == nil {
		return profileView{}
	}
	return profileView{UserID: p.UserID, Email: p.Email, Name: p.Name, Address: p.Address}
}

func storeForRequest(registry *session.Registry, r *http.Request) (*session.ProfileStore, *session.Session, error) {
	sess := middleware.SessionFromRequest(r)
	if sess == nil {
		return nil, nil, session.ErrNoSession()
	}
	store, err := registry.ForUser(sess.UserID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve profile store")
	}
	return store, sess, nil
}

// Refresh refetches the profile in place; views re-read it afterwards
// instead of reloading the whole page.
func Refresh(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := store.Refresh(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProfileView(profile))
	}
}

// UpdateAddress full-replaces the address, then refreshes the cached profile.
func UpdateAddress(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sess, err := storeForRequest(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := store.UpdateAddress(r.Context(), sess, payload.Address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProfileView(profile))
	}
}
