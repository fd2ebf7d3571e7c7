package catalog

const (
	EventProductUpdated             = "ProductUpdated"
	EventProductDeleted             = "ProductDeleted"
	EventProductValidationRequested = "ProductValidationRequested"
	EventProductValidationCompleted = "ProductValidationCompleted"
)

// ProductUpdated carries the full current product state so consumers
// can apply it as an absolute overwrite.
type ProductUpdated struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int    `json:"price"`
	Currency      string `json:"currency"`
	StockQuantity int    `json:"stockQuantity"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	Active        bool   `json:"active"`
}

type ProductDeleted struct {
	ProductID string `json:"productId"`
}

// ValidationRequested asks the catalog to confirm products exist and
// are fulfillable. The request id is the order id.
type ValidationRequested struct {
	RequestID          string            `json:"requestId"`
	ProductIDs         []string          `json:"productIds"`
	RequiredQuantities []ProductQuantity `json:"requiredQuantities,omitempty"`
	RequestingService  string            `json:"requestingService"`
}

type ProductQuantity struct {
	ProductID        string `json:"productId"`
	RequiredQuantity int    `json:"requiredQuantity"`
}

// ValidationCompleted partitions the requested products into valid,
// invalid (missing or inactive) and unavailable (found but short on
// stock).
type ValidationCompleted struct {
	RequestID           string                `json:"requestId"`
	ValidProducts       []string              `json:"validProducts"`
	InvalidProducts     []string              `json:"invalidProducts"`
	UnavailableProducts []ProductAvailability `json:"unavailableProducts"`
	IsValid             bool                  `json:"isValid"`
	RequestingService   string                `json:"requestingService"`
}

type ProductAvailability struct {
	ProductID         string `json:"productId"`
	AvailableQuantity int    `json:"availableQuantity"`
	RequestedQuantity int    `json:"requestedQuantity"`
}
