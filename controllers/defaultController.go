package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Solemart API. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

ORDER
- POST "/order/add" - Create a new order from a cart
- GET "/order" - Retrieve all orders (admins see every order)
- GET "/order/me" - Retrieve your own orders
- GET "/order/search?search=<id>" - Look up an order by exact id
- GET "/order/:orderId" - Get order by ID with computed tax
- DELETE "/order/cancel/:orderId" - Cancel an order and restore inventory
- PUT "/order/status/item/:itemId" - Update a line item status

PAYMENT
- POST "/payment/create-session" - Create a payment session
- GET "/payment/status/:orderId" - Poll payment status
- POST "/payment/webhook" - Gateway webhook endpoint

CART
- POST "/cart" - Add a product to your cart
- GET "/cart" - Get your active cart

PRODUCT
- POST "/product" - Create new product (admin)
- POST "/product-images" - Add product images (admin)
- GET "/product" - Get all products
- GET "/product/:id" - Get product by ID`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
