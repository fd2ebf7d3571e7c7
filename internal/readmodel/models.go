package readmodel

import "time"

// CartItemView is the denormalized read row for one cart line item,
// joined with the product details current at projection time. It is
// never authoritative: it may lag the write store and is rebuilt when
// an update arrives for a row that does not exist.
type CartItemView struct {
	ID                 string    `json:"id"`
	CartItemID         string    `json:"cartItemId"`
	CartID             string    `json:"cartId"`
	UserID             string    `json:"userId"`
	ProductID          string    `json:"productId"`
	ProductName        string    `json:"productName"`
	ProductDescription string    `json:"productDescription"`
	ProductPrice       int       `json:"productPrice"`
	ProductImageURL    string    `json:"productImageUrl"`
	ProductCategory    string    `json:"productCategory"`
	ProductActive      bool      `json:"productActive"`
	Available          bool      `json:"available"`
	Quantity           int       `json:"quantity"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
