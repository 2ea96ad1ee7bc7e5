package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/controllers"
	"github.com/solemart/solemart-api/middlewares"
)

func ProductRoutes(server *gin.Engine) {
	server.POST("/product", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.CreateProduct)
	server.POST("/product-images", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.UploadProductImages)
	server.GET("/product", controllers.GetProducts)
	server.GET("/product/:id", controllers.GetProduct)
}
