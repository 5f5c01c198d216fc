package checkout

import "github.com/aureliajewels/storefront/pkg/types"

// SetDestinationRequest switches the quoted destination country.
type SetDestinationRequest struct {
	Country string `json:"country" validate:"required,len=2"`
}

// SetCurrencyRequest switches the quoted currency.
type SetCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3"`
}

// SubmitRequest places the order against the caller's server-side cart.
type SubmitRequest struct {
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
	PaymentMethod   string        `json:"payment_method" validate:"required"`
}
