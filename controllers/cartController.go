package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/solemart/solemart-api/initializers"
	"github.com/solemart/solemart-api/models"
)

// activeCartFor returns the caller's active cart, creating one on first
// add-to-cart. Claimed carts stay attached to their order and are never
// reused.
func activeCartFor(userId int) (*models.Cart, error) {
	var cart models.Cart
	err := initializers.DB.
		Where("user_id = ? AND status = ?", userId, models.CartStatusActive).
		Preload("Items").
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userId, Status: models.CartStatusActive}
		if err := initializers.DB.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func AddToCart(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var body struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ProductID == 0 || body.Quantity <= 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, "productId and a positive quantity are required")
		return
	}

	var product models.Product
	if err := initializers.DB.First(&product, body.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Product not found")
		} else {
			log.Println("Database error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgRequestFailed)
		}
		return
	}

	cart, err := activeCartFor(actor.ID)
	if err != nil {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgRequestFailed)
		return
	}

	var existing models.CartItem
	err = initializers.DB.
		Where("cart_id = ? AND product_id = ?", cart.ID, body.ProductID).
		First(&existing).Error

	if err == nil {
		existing.Quantity += body.Quantity
		if err := initializers.DB.Save(&existing).Error; err != nil {
			log.Println("Update error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to update cart item quantity.")
			return
		}
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"message": "Cart item quantity updated",
			"cartId":  cart.ID,
			"id":      existing.ID,
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch cart item")
		return
	}

	// Name and price are copied onto the line item so the order snapshot
	// survives later product edits or deletion.
	cartItem := models.CartItem{
		CartID:       int(cart.ID),
		ProductId:    int(product.ID),
		ProductName:  product.Name,
		ProductPrice: product.Price,
		Quantity:     body.Quantity,
		Status:       models.ItemStatusOrdered,
	}
	if err := initializers.DB.Create(&cartItem).Error; err != nil {
		log.Println("Create error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to create cart item")
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": product.Name + " added to cart",
		"cartId":  cart.ID,
		"id":      cartItem.ID,
	})
}

func GetCart(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var cart models.Cart
	result := initializers.DB.
		Where("user_id = ? AND status = ?", actor.ID, models.CartStatusActive).
		Preload("Items").
		First(&cart)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Cart not found")
		} else {
			log.Println("Database error:", result.Error)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}
