package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/solemart/solemart-api/models"
)

// Gateway is the port to the external payment processor.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewaySession, error)
	ListPayments(ctx context.Context, gatewayOrderID string) ([]map[string]any, error)
	VerifyWebhookSignature(rawBody []byte, timestamp, signature string) bool
}

type GatewayOrderRequest struct {
	OrderID       string
	Amount        float64
	Currency      string
	Note          string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	NotifyURL     string
}

type GatewaySession struct {
	SessionID      string  `json:"payment_session_id"`
	GatewayOrderID string  `json:"order_id"`
	Amount         float64 `json:"order_amount"`
}

// PaymentService brokers payment sessions and reconciles webhook
// notifications with local order state through the order service.
type PaymentService struct {
	store   Store
	gateway Gateway
	orders  *OrderService
}

func NewPaymentService(store Store, gateway Gateway, orders *OrderService) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, orders: orders}
}

// CreateSession creates a payment session at the gateway for an order the
// caller owns and moves the order into Processing. The gateway-side order
// id is reused while a session is still live so a double submit cannot
// open two gateway orders; a retry after a failed payment mints a fresh
// id because the gateway treats its order ids as one-shot. Minting claims
// the id with a conditional swap, so two concurrent submits settle on one
// id even before either gateway call returns.
func (s *PaymentService) CreateSession(ctx context.Context, actor Actor, orderID int, amount float64, description string) (*GatewaySession, error) {
	if orderID == 0 {
		return nil, fmt.Errorf("%w: orderId is required", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: orderAmount is required", ErrValidation)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: order is already paid", ErrPrecondition)
	}
	if math.Abs(amount-order.Total) > 0.009 {
		return nil, fmt.Errorf("%w: orderAmount does not match the order total", ErrValidation)
	}

	gatewayOrderID := order.GatewayOrderID
	minted := false
	if gatewayOrderID == "" || order.PaymentStatus == models.PaymentStatusFailed {
		next := fmt.Sprintf("order-%d-%s", order.ID, uuid.NewString()[:8])
		err := s.store.ClaimGatewayOrderID(ctx, int(order.ID), gatewayOrderID, next)
		switch {
		case errors.Is(err, ErrPrecondition):
			// A concurrent submit claimed an id first; adopt it.
			fresh, err := s.store.GetOrder(ctx, int(order.ID))
			if err != nil {
				return nil, err
			}
			gatewayOrderID = fresh.GatewayOrderID
		case err != nil:
			return nil, err
		default:
			gatewayOrderID = next
			minted = true
		}
	}

	if description == "" {
		description = fmt.Sprintf("Payment for order #%d", order.ID)
	}

	session, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		OrderID:       gatewayOrderID,
		Amount:        order.Total,
		Currency:      "INR",
		Note:          description,
		CustomerID:    fmt.Sprintf("%d", actor.ID),
		CustomerName:  actor.Name,
		CustomerEmail: actor.Email,
		CustomerPhone: actor.Phone,
		ReturnURL:     fmt.Sprintf("%s/order-success/%d", frontendURL(), order.ID),
		NotifyURL:     fmt.Sprintf("%s/api/payment/webhook", backendURL()),
	})
	if err != nil {
		if minted {
			// Give the claimed id back so the next attempt starts clean.
			if swapErr := s.store.ClaimGatewayOrderID(ctx, int(order.ID), gatewayOrderID, order.GatewayOrderID); swapErr != nil {
				log.Printf("order %d: could not release gateway order id %s: %v", order.ID, gatewayOrderID, swapErr)
			}
		}
		return nil, err
	}

	fields := map[string]any{"gateway_order_id": session.GatewayOrderID}
	if canTransitionPayment(order.PaymentStatus, models.PaymentStatusProcessing) {
		fields["payment_status"] = models.PaymentStatusProcessing
	}
	if err := s.store.UpdateOrder(ctx, int(order.ID), fields); err != nil {
		// The gateway session exists either way; the webhook will still
		// reconcile by gateway order id once this write is retried.
		log.Printf("order %d: session %s created but not saved: %v", order.ID, session.SessionID, err)
		return nil, err
	}

	return session, nil
}

// GetStatus polls the gateway for the order's payments. It is for UI
// polling only and is never treated as proof of payment; the webhook
// remains the authoritative path.
func (s *PaymentService) GetStatus(ctx context.Context, actor Actor, orderID int) ([]map[string]any, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if order.GatewayOrderID == "" {
		return nil, fmt.Errorf("%w: no payment session exists for this order", ErrPrecondition)
	}
	return s.gateway.ListPayments(ctx, order.GatewayOrderID)
}

type webhookPayload struct {
	OrderID       string      `json:"order_id"`
	PaymentStatus string      `json:"payment_status"`
	PaymentTime   string      `json:"payment_time"`
	CfPaymentID   json.Number `json:"cf_payment_id"`
}

// HandleWebhook verifies the gateway signature and applies the payment
// outcome. Verification is mandatory; everything after it is idempotent,
// so duplicated or re-delivered webhooks are harmless.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, timestamp, signature string) error {
	if !s.gateway.VerifyWebhookSignature(rawBody, timestamp, signature) {
		return fmt.Errorf("%w: invalid webhook signature", ErrAuthentication)
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return fmt.Errorf("%w: malformed webhook payload", ErrValidation)
	}

	var status string
	var paymentID string
	var paidAt *time.Time

	switch payload.PaymentStatus {
	case "SUCCESS":
		status = models.PaymentStatusCompleted
		paymentID = payload.CfPaymentID.String()
		if t, err := time.Parse(time.RFC3339, payload.PaymentTime); err == nil {
			paidAt = &t
		}
	case "FAILED":
		status = models.PaymentStatusFailed
		paymentID = payload.CfPaymentID.String()
	case "USER_DROPPED":
		status = models.PaymentStatusCancelled
		paymentID = payload.CfPaymentID.String()
	default:
		log.Printf("ignoring webhook with payment_status %q", payload.PaymentStatus)
		return nil
	}

	return s.orders.ApplyPaymentOutcome(ctx, payload.OrderID, status, paymentID, paidAt)
}
