package cart

import (
	cartsvc "github.com/aureliajewels/storefront/internal/cart"
	"github.com/shopspring/decimal"
)

type itemView struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type cartView struct {
	Items       []itemView      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
}

type countView struct {
	Count int `json:"count"`
}

func newCartView(snap cartsvc.Snapshot) cartView {
	items := make([]itemView, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, itemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return cartView{
		Items:       items,
		TotalAmount: snap.TotalAmount,
		Count:       snap.Count(),
	}
}
