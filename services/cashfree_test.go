package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCashfreeClient(baseURL string) *CashfreeClient {
	return &CashfreeClient{
		client:    resty.New().SetBaseURL(baseURL).SetTimeout(5 * time.Second),
		appID:     "test-app-id",
		secretKey: "test-secret-key",
	}
}

func TestCashfreeCreateOrder(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pg/orders", r.URL.Path)
		assert.Equal(t, "test-app-id", r.Header.Get("x-client-id"))
		assert.Equal(t, "test-secret-key", r.Header.Get("x-client-secret"))
		assert.Equal(t, cashfreeAPIVersion, r.Header.Get("x-api-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payment_session_id":"session_abc","order_id":"order-1-cafef00d","order_amount":250}`))
	}))
	defer srv.Close()

	client := newTestCashfreeClient(srv.URL)
	session, err := client.CreateOrder(context.Background(), GatewayOrderRequest{
		OrderID:       "order-1-cafef00d",
		Amount:        250,
		Currency:      "INR",
		CustomerID:    "1",
		CustomerEmail: "buyer@example.com",
		CustomerPhone: "9000000001",
		ReturnURL:     "http://localhost:8000/order-success/1",
		NotifyURL:     "http://localhost:3000/api/payment/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "session_abc", session.SessionID)
	assert.Equal(t, "order-1-cafef00d", session.GatewayOrderID)
	assert.Equal(t, 250.0, session.Amount)

	assert.Equal(t, "order-1-cafef00d", captured["order_id"])
	assert.Equal(t, "INR", captured["order_currency"])
	details, ok := captured["customer_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "buyer@example.com", details["customer_email"])
}

func TestCashfreeCreateOrderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"order_id already exists","code":"order_already_exists"}`))
	}))
	defer srv.Close()

	client := newTestCashfreeClient(srv.URL)
	_, err := client.CreateOrder(context.Background(), GatewayOrderRequest{OrderID: "order-1-dup", Amount: 250, Currency: "INR"})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCashfreeCreateOrderMissingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"order_id":"order-1-cafef00d","order_amount":250}`))
	}))
	defer srv.Close()

	client := newTestCashfreeClient(srv.URL)
	_, err := client.CreateOrder(context.Background(), GatewayOrderRequest{OrderID: "order-1-cafef00d", Amount: 250, Currency: "INR"})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestCashfreeListPayments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/orders/order-1-cafef00d/payments", r.URL.Path)
		w.Write([]byte(`[{"payment_status":"SUCCESS","cf_payment_id":12345}]`))
	}))
	defer srv.Close()

	client := newTestCashfreeClient(srv.URL)
	payments, err := client.ListPayments(context.Background(), "order-1-cafef00d")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "SUCCESS", payments[0]["payment_status"])
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestCashfreeClient("http://unused")
	rawBody := []byte(`{"order_id":"order-1-cafef00d","payment_status":"SUCCESS"}`)
	timestamp := "1756500000000"

	mac := hmac.New(sha256.New, []byte("test-secret-key"))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(rawBody, timestamp, signature))
	assert.False(t, client.VerifyWebhookSignature([]byte(`{"tampered":true}`), timestamp, signature))
	assert.False(t, client.VerifyWebhookSignature(rawBody, "1756500000001", signature))
	assert.False(t, client.VerifyWebhookSignature(rawBody, timestamp, ""))
	assert.False(t, client.VerifyWebhookSignature(rawBody, "", signature))
}
