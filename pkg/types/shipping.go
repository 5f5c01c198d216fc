package types

// EstimatedDays is the delivery window quoted for a shipment.
type EstimatedDays struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CartLine is one (product, quantity) pair quoted or ordered.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Address is the shipping destination submitted with an order.
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}
