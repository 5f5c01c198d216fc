package backend

import (
	"context"
	"net/http"

	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/types"
)

// OrderRequest is the submission payload. The backend resolves items from the
// caller's server-side cart, not from this payload.
type OrderRequest struct {
	ShippingAddress types.Address `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method"`
}

// OrderConfirmation is the backend's acknowledgment of a placed order.
type OrderConfirmation struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// SubmitOrder places an order against the caller's current server-side cart.
// Never retried; submission is not assumed idempotent.
func (c *Client) SubmitOrder(ctx context.Context, token string, req OrderRequest) (*OrderConfirmation, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	var confirmation OrderConfirmation
	if err := c.do(ctx, callParams{
		method: http.MethodPost,
		path:   "/orders",
		token:  token,
		body:   req,
		out:    &confirmation,
	}); err != nil {
		return nil, err
	}
	return &confirmation, nil
}
