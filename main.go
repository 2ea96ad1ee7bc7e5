package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/solemart/solemart-api/controllers"
	"github.com/solemart/solemart-api/initializers"
	"github.com/solemart/solemart-api/routes"
	"github.com/solemart/solemart-api/services"
	"github.com/solemart/solemart-api/store"
)

func main() {
	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
	if err := initializers.EnsureAdminAccount(); err != nil {
		log.Fatal("Admin bootstrap failed: ", err)
	}

	db := store.New(initializers.DB)
	orders := services.NewOrderService(db, services.EmailNotifier{})
	payments := services.NewPaymentService(db, services.NewCashfreeClient(), orders)
	controllers.Setup(orders, payments)

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.DefaultRoutes(server)
	routes.ProductRoutes(server)
	routes.CartRoutes(server)
	routes.OrderRoutes(server)
	routes.PaymentRoutes(server)

	server.Run()
}

func allowedOrigins() []string {
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		return strings.Split(v, ",")
	}
	return []string{"http://localhost:5000", "http://localhost:8000"}
}
