package models

import "gorm.io/gorm"

const (
	CartStatusActive     = "Active"
	CartStatusCheckedOut = "CheckedOut"
)

// Per line item statuses. Ordered is the default at add-to-cart time.
const (
	ItemStatusOrdered    = "Ordered"
	ItemStatusProcessing = "Processing"
	ItemStatusShipped    = "Shipped"
	ItemStatusDelivered  = "Delivered"
	ItemStatusCancelled  = "Cancelled"
)

type CartItem struct {
	gorm.Model
	CartID       int     `json:"cartId"`
	ProductId    int     `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductPrice float64 `json:"productPrice"`
	Quantity     int     `json:"quantity"`
	Status       string  `json:"status"`
}

type Cart struct {
	gorm.Model
	UserID int        `json:"userId"`
	Status string     `json:"status"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}
