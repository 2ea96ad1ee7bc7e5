package initializers

import (
	"log"

	"github.com/solemart/solemart-api/models"
)

func SyncDatabase() {
	DB.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
	)
	log.Println("Database synced successfully.")
}
