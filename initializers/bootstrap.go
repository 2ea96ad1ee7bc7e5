package initializers

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/solemart/solemart-api/models"
)

const bcryptCost = 10

// EnsureAdminAccount provisions the admin user if it does not exist yet.
// It is called explicitly from main, never from a package init, and is
// safe to run on every startup.
func EnsureAdminAccount() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap.")
		return nil
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	admin := models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Password:  string(hash),
		Role:      "admin",
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Admin user created:", email)
	return nil
}
