package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/models"
	"github.com/solemart/solemart-api/services"
)

func CreateOrder(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body struct {
		CartID    int     `json:"cartId"`
		Total     float64 `json:"total"`
		AddressID int     `json:"addressId"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := orderService.CreateOrder(ctx.Request.Context(), actor, services.CreateOrderInput{
		CartID:    body.CartID,
		Total:     body.Total,
		AddressID: body.AddressID,
	})
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"success": true,
		"message": "Your order has been placed successfully!",
		"order":   order,
	})
}

func GetOrders(ctx *gin.Context) {
	listOrders(ctx, false)
}

func GetMyOrders(ctx *gin.Context) {
	listOrders(ctx, true)
}

func listOrders(ctx *gin.Context, mineOnly bool) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	result, err := orderService.ListOrders(ctx.Request.Context(), actor, page, limit, mineOnly)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders":      result.Orders,
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
		"count":       result.Count,
	})
}

func SearchOrders(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	// A non-numeric search term can never match an order id, so it is an
	// empty result rather than an error.
	orderId, err := strconv.Atoi(ctx.Query("search"))
	if err != nil {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": []any{}})
		return
	}

	orders, err := orderService.SearchOrders(ctx.Request.Context(), actor, orderId)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

func GetOrderById(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	order, err := orderService.GetOrder(ctx.Request.Context(), actor, orderId)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func CancelOrder(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	if err := orderService.CancelOrder(ctx.Request.Context(), actor, orderId); err != nil {
		sendServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true})
}

func UpdateOrderItemStatus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	itemId, err := strconv.Atoi(ctx.Param("itemId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse itemId")
		return
	}

	var body struct {
		OrderID int    `json:"orderId"`
		CartID  int    `json:"cartId"`
		Status  string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Status == "" {
		body.Status = models.ItemStatusCancelled
	}

	orderCancelled, err := orderService.UpdateItemStatus(
		ctx.Request.Context(), actor, itemId, body.OrderID, body.CartID, body.Status)
	if err != nil {
		sendServiceError(ctx, err)
		return
	}

	switch {
	case orderCancelled:
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":        true,
			"orderCancelled": true,
			"message":        "Your order has been cancelled successfully",
		})
	case body.Status == models.ItemStatusCancelled:
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":        true,
			"orderCancelled": false,
			"message":        "Item has been cancelled successfully!",
		})
	default:
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":        true,
			"orderCancelled": false,
			"message":        "Item status has been updated successfully!",
		})
	}
}
