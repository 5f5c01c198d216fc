package backend

import (
	"context"
	"net/http"

	pkgerrors "github.com/aureliajewels/storefront/pkg/errors"
	"github.com/aureliajewels/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// EstimateRequest is the shipping quote payload sent to the backend.
type EstimateRequest struct {
	CountryCode string           `json:"country_code"`
	Preferred   string           `json:"preferred"`
	Currency    string           `json:"currency"`
	MarkupPct   float64          `json:"markup_pct"`
	Items       []types.CartLine `json:"items"`
}

// EstimateResponse carries the raw quote. ShippingCost is keyed by currency
// code; the caller must read the exact currency it requested.
type EstimateResponse struct {
	ShippingCost  map[string]decimal.Decimal `json:"shipping_cost"`
	EstimatedDays *types.EstimatedDays       `json:"estimated_days"`
}

// EstimateShipping requests a cost/ETA quote. A 400 from the backend means
// the destination is not serviceable and maps to CodeUnavailable; every
// other failure stays transient or validation per the default mapping.
func (c *Client) EstimateShipping(ctx context.Context, token string, req EstimateRequest) (*EstimateResponse, error) {
	var quote EstimateResponse
	err := c.do(ctx, callParams{
		method: http.MethodPost,
		path:   "/shipping/estimate",
		token:  token,
		body:   req,
		out:    &quote,
		statusMapper: func(status int, _ []byte) error {
			if status == http.StatusBadRequest {
				return pkgerrors.New(pkgerrors.CodeUnavailable, "destination not serviceable").
					WithDetails(map[string]string{"country_code": req.CountryCode})
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
