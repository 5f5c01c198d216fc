package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// CartItem is one line of the server-side cart.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart is the authoritative server-side cart snapshot.
type Cart struct {
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// FetchCart loads the caller's full cart. Retries transient failures.
func (c *Client) FetchCart(ctx context.Context, token string) (*Cart, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	var cart Cart
	if err := c.doWithRetry(ctx, callParams{
		method: http.MethodGet,
		path:   "/cart",
		token:  token,
		out:    &cart,
	}); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem adds quantity of a product to the caller's cart.
func (c *Client) AddItem(ctx context.Context, token, productID string, quantity int) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	query := url.Values{}
	query.Set("product_id", productID)
	query.Set("quantity", strconv.Itoa(quantity))
	return c.do(ctx, callParams{
		method: http.MethodPost,
		path:   "/cart/add",
		query:  query,
		token:  token,
	})
}

// RemoveItem deletes a product line from the caller's cart.
func (c *Client) RemoveItem(ctx context.Context, token, productID string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no session token")
	}
	return c.do(ctx, callParams{
		method: http.MethodDelete,
		path:   "/cart/remove/" + url.PathEscape(productID),
		token:  token,
	})
}
