package order

const EventOrderCreated = "OrderCreated"

// Created announces a new order entering validation. Reserved for
// future consumers on the order-events channel; nothing in this
// repository subscribes to it yet.
type Created struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	Items       []Item `json:"items"`
	TotalAmount int    `json:"totalAmount"`
}
