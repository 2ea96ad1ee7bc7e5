package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/services"
)

func CreatePaymentSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body struct {
		OrderAmount float64 `json:"orderAmount"`
		OrderID     int     `json:"orderId"`
		Description string  `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := paymentService.CreateSession(
		ctx.Request.Context(), actor, body.OrderID, body.OrderAmount, body.Description)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"success":            true,
		"payment_session_id": session.SessionID,
		"order_id":           session.GatewayOrderID,
		"order_amount":       session.Amount,
	})
}

func GetPaymentStatus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	payments, err := paymentService.GetStatus(ctx.Request.Context(), actor, orderId)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"success":  true,
		"payments": payments,
	})
}

// HandlePaymentWebhook receives gateway notifications. A bad signature is
// rejected with 401; any failure after that is logged and answered with
// 200 anyway, because the handler is idempotent and a 5xx would only
// trigger a redelivery storm for a payload we already cannot apply.
func HandlePaymentWebhook(ctx *gin.Context) {
	rawBody, err := ctx.GetRawData()
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Unreadable webhook body")
		return
	}

	timestamp := ctx.GetHeader("x-webhook-timestamp")
	signature := ctx.GetHeader("x-webhook-signature")

	err = paymentService.HandleWebhook(ctx.Request.Context(), rawBody, timestamp, signature)
	if errors.Is(err, services.ErrAuthentication) {
		sendErrorResponse(ctx, http.StatusUnauthorized, "Invalid signature")
		return
	}
	if err != nil {
		log.Println("webhook processing failed:", err)
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Webhook processed successfully"})
}
