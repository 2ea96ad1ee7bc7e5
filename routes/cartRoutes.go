package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/controllers"
	"github.com/solemart/solemart-api/middlewares"
)

func CartRoutes(server *gin.Engine) {
	server.POST("/cart", middlewares.RequireAuth(), controllers.AddToCart)
	server.GET("/cart", middlewares.RequireAuth(), controllers.GetCart)
}
