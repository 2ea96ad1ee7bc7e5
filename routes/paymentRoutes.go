package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/controllers"
	"github.com/solemart/solemart-api/middlewares"
)

func PaymentRoutes(server *gin.Engine) {
	payment := server.Group("/payment")
	{
		payment.POST("/create-session", middlewares.RequireAuth(), controllers.CreatePaymentSession)
		payment.GET("/status/:orderId", middlewares.RequireAuth(), controllers.GetPaymentStatus)
		// The gateway authenticates with its webhook signature, not a JWT.
		payment.POST("/webhook", controllers.HandlePaymentWebhook)
	}
}
