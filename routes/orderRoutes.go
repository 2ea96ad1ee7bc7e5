package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/controllers"
	"github.com/solemart/solemart-api/middlewares"
)

func OrderRoutes(server *gin.Engine) {
	order := server.Group("/order", middlewares.RequireAuth())
	{
		order.POST("/add", controllers.CreateOrder)
		order.GET("", controllers.GetOrders)
		order.GET("/me", controllers.GetMyOrders)
		order.GET("/search", controllers.SearchOrders)
		order.GET("/:orderId", controllers.GetOrderById)
		order.DELETE("/cancel/:orderId", controllers.CancelOrder)
		order.PUT("/status/item/:itemId", controllers.UpdateOrderItemStatus)
	}
}
