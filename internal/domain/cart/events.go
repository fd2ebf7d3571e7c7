package cart

const (
	EventCartItemAdded           = "CartItemAdded"
	EventCartItemUpdated         = "CartItemUpdated"
	EventCartItemRemoved         = "CartItemRemoved"
	EventCartValidationRequested = "CartValidationRequested"
	EventCartValidationCompleted = "CartValidationCompleted"
)

// ItemAdded is emitted when a line item first appears in a cart.
// The envelope aggregate id is the cart item id so that the full
// history of one item is delivered in order.
type ItemAdded struct {
	CartItemID string `json:"cartItemId"`
	CartID     string `json:"cartId"`
	UserID     string `json:"userId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

// ItemUpdated carries the absolute quantity, never a delta, so
// redelivery cannot double-count.
type ItemUpdated struct {
	CartItemID string `json:"cartItemId"`
	CartID     string `json:"cartId"`
	UserID     string `json:"userId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

type ItemRemoved struct {
	CartItemID string `json:"cartItemId"`
	CartID     string `json:"cartId"`
	UserID     string `json:"userId"`
	ProductID  string `json:"productId"`
}

// ValidationRequested asks the cart owner to confirm an order's line
// items against the authoritative write store.
type ValidationRequested struct {
	OrderID           string          `json:"orderId"`
	UserID            string          `json:"userId"`
	Items             []RequestedItem `json:"items"`
	RequestingService string          `json:"requestingService"`
}

type RequestedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ValidationCompleted is the cart owner's answer. Business failures
// travel here as data; they are never raised as errors.
type ValidationCompleted struct {
	OrderID           string   `json:"orderId"`
	UserID            string   `json:"userId"`
	IsValid           bool     `json:"isValid"`
	ValidationErrors  []string `json:"validationErrors"`
	RequestingService string   `json:"requestingService"`
}
