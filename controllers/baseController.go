package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/solemart/solemart-api/services"
)

const msgRequestFailed = "Your request could not be processed. Please try again."

var (
	orderService   *services.OrderService
	paymentService *services.PaymentService
)

// Setup wires the controllers to the engine services. Called once from
// main before the routes are registered.
func Setup(orders *services.OrderService, payments *services.PaymentService) {
	orderService = orders
	paymentService = payments
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"error": message})
}

// sendServiceError maps an engine error onto an HTTP response. Validation
// and precondition detail is surfaced verbatim; gateway and internal
// detail is logged server side and replaced with a generic message.
func sendServiceError(ctx *gin.Context, err error) {
	status := services.HTTPStatus(err)
	switch {
	case errors.Is(err, services.ErrGateway):
		log.Println("gateway error:", err)
		sendErrorResponse(ctx, status, "Payment failed. Please try again.")
	case status >= http.StatusInternalServerError:
		log.Println("internal error:", err)
		sendErrorResponse(ctx, status, msgRequestFailed)
	default:
		sendErrorResponse(ctx, status, err.Error())
	}
}

// currentActor extracts the authenticated caller from the JWT claims the
// auth middleware stored on the context.
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	userClaims, exists := ctx.Get("user")
	if !exists {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return services.Actor{}, false
	}

	claims, ok := userClaims.(jwt.MapClaims)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "Invalid token claims")
		return services.Actor{}, false
	}

	actor := services.Actor{}
	if id, ok := claims["user_id"].(float64); ok {
		actor.ID = int(id)
	}
	if email, ok := claims["email"].(string); ok {
		actor.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}
	if phone, ok := claims["phone"].(string); ok {
		actor.Phone = phone
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = role
	}

	if actor.ID == 0 {
		sendErrorResponse(ctx, http.StatusUnauthorized, "Invalid token claims")
		return services.Actor{}, false
	}
	return actor, true
}
