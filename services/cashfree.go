package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const cashfreeAPIVersion = "2023-08-01"

// CashfreeClient talks to the Cashfree payment gateway. Credentials and
// environment come from CASHFREE_APP_ID, CASHFREE_SECRET_KEY and
// CASHFREE_ENVIRONMENT (SANDBOX unless set to PRODUCTION).
type CashfreeClient struct {
	client    *resty.Client
	appID     string
	secretKey string
}

func NewCashfreeClient() *CashfreeClient {
	baseURL := "https://sandbox.cashfree.com"
	if os.Getenv("CASHFREE_ENVIRONMENT") == "PRODUCTION" {
		baseURL = "https://api.cashfree.com"
	}

	return &CashfreeClient{
		client:    resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		appID:     os.Getenv("CASHFREE_APP_ID"),
		secretKey: os.Getenv("CASHFREE_SECRET_KEY"),
	}
}

func (c *CashfreeClient) headers() map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		"Accept":          "application/json",
		"x-client-id":     c.appID,
		"x-client-secret": c.secretKey,
		"x-api-version":   cashfreeAPIVersion,
	}
}

func (c *CashfreeClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewaySession, error) {
	body := map[string]any{
		"order_id":       req.OrderID,
		"order_amount":   req.Amount,
		"order_currency": req.Currency,
		"order_note":     req.Note,
		"customer_details": map[string]any{
			"customer_id":    req.CustomerID,
			"customer_name":  req.CustomerName,
			"customer_email": req.CustomerEmail,
			"customer_phone": req.CustomerPhone,
		},
		"order_meta": map[string]any{
			"return_url": req.ReturnURL,
			"notify_url": req.NotifyURL,
		},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(c.headers()).
		SetBody(body).
		Post("/pg/orders")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.StatusCode() != 200 {
		log.Printf("cashfree create order failed with status %d: %s", resp.StatusCode(), resp.Body())
		return nil, fmt.Errorf("%w: create order returned status %d", ErrGateway, resp.StatusCode())
	}

	var session GatewaySession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("%w: unreadable create order response", ErrGateway)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("%w: incomplete create order response", ErrGateway)
	}
	return &session, nil
}

func (c *CashfreeClient) ListPayments(ctx context.Context, gatewayOrderID string) ([]map[string]any, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(c.headers()).
		Get("/pg/orders/" + gatewayOrderID + "/payments")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.StatusCode() != 200 {
		log.Printf("cashfree payment status failed with status %d: %s", resp.StatusCode(), resp.Body())
		return nil, fmt.Errorf("%w: payment status returned status %d", ErrGateway, resp.StatusCode())
	}

	var payments []map[string]any
	if err := json.Unmarshal(resp.Body(), &payments); err != nil {
		return nil, fmt.Errorf("%w: unreadable payment status response", ErrGateway)
	}
	return payments, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature Cashfree sends
// with every webhook: base64(hmac(secret, timestamp + rawBody)).
func (c *CashfreeClient) VerifyWebhookSignature(rawBody []byte, timestamp, signature string) bool {
	if timestamp == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	computed := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(signature))
}

func frontendURL() string {
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		return v
	}
	return "http://localhost:8000"
}

func backendURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}
