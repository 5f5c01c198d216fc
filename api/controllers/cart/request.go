package cart

// AddItemRequest adds a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest replaces a line's quantity. Quantities below 1 are
// rejected here; removal is a separate operation.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}
