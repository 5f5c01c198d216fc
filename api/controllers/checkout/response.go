package checkout

import (
	checkoutsvc "github.com/aureliajewels/storefront/internal/checkout"
	"github.com/aureliajewels/storefront/internal/shipping"
	"github.com/aureliajewels/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

type quoteView struct {
	State         string               `json:"state"`
	Cost          *decimal.Decimal     `json:"cost,omitempty"`
	EstimatedDays *types.EstimatedDays `json:"estimated_days,omitempty"`
	Message       string               `json:"message,omitempty"`
}

type checkoutView struct {
	Phase        string          `json:"phase"`
	Country      string          `json:"country"`
	Currency     string          `json:"currency"`
	Shipping     quoteView       `json:"shipping"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
	TotalPending bool            `json:"total_pending"`
	CanSubmit    bool            `json:"can_submit"`
	OrderID      string          `json:"order_id,omitempty"`
}

func newCheckoutView(view checkoutsvc.View) checkoutView {
	out := checkoutView{
		Phase:        string(view.Phase),
		Country:      view.Country,
		Currency:     view.Currency,
		Subtotal:     view.Subtotal,
		Total:        view.Total,
		TotalPending: view.TotalPending,
		CanSubmit:    view.CanSubmit,
	}

	out.Shipping = quoteView{
		State:         string(view.Quote.State),
		EstimatedDays: view.Quote.EstimatedDays,
		Message:       view.Quote.Message,
	}
	if view.Quote.State == shipping.StateReady {
		cost := view.Quote.Cost
		out.Shipping.Cost = &cost
	}

	if view.Confirmation != nil {
		out.OrderID = view.Confirmation.OrderID
	}
	return out
}
