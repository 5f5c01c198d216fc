package backend

import (
	"context"
	"net/http"

	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/types"
)

// Profile is the authenticated user's account data held by the backend.
type Profile struct {
	UserID  string         `json:"user_id"`
	Email   string         `json:"email"`
	Name    string         `json:"name"`
	Address *types.Address `json:"address,omitempty"`
}

// FetchProfile loads the caller's profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	var profile Profile
	if err := c.doWithRetry(ctx, callParams{
		method: http.MethodGet,
		path:   "/profile",
		token:  token,
		out:    &profile,
	}); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile writes the full profile back. The address sub-object is sent
// as a full replacement; the backend contract does not support merges.
func (c *Client) UpdateProfile(ctx context.Context, token string, profile Profile) (*Profile, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	var updated Profile
	if err := c.do(ctx, callParams{
		method: http.MethodPut,
		path:   "/profile",
		token:  token,
		body:   profile,
		out:    &updated,
	}); err != nil {
		return nil, err
	}
	return &updated, nil
}
