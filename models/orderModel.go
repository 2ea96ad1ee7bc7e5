package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment lifecycle states. Pending and Processing are transient,
// Completed and Cancelled are terminal, Failed settles once a retried
// payment completes or the order is cancelled.
const (
	PaymentStatusPending    = "Pending"
	PaymentStatusProcessing = "Processing"
	PaymentStatusCompleted  = "Completed"
	PaymentStatusFailed     = "Failed"
	PaymentStatusCancelled  = "Cancelled"
)

const (
	PaymentMethodCreditCard = "Credit Card"
	PaymentMethodDebitCard  = "Debit Card"
	PaymentMethodUPI        = "UPI"
	PaymentMethodNetBanking = "Net Banking"
	PaymentMethodWallet     = "Wallet"
)

type Order struct {
	gorm.Model
	UserID          int            `json:"userId"`
	CartID          int            `json:"cartId"`
	AddressSnapshot datatypes.JSON `json:"address"`
	Total           float64        `json:"total"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentStatus   string         `json:"paymentStatus"`
	GatewayOrderID  string         `json:"gatewayOrderId"`
	PaymentID       string         `json:"paymentId"`
	PaidAt          *time.Time     `json:"paidAt"`
}
