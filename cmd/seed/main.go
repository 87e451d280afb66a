package main

import (
	"context"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pixvault/internal/config"
	"pixvault/internal/db"
	"pixvault/internal/model"
	"pixvault/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Upload{}, &model.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	email := envOr("ADMIN_EMAIL", "admin@pixvault.local")
	password := envOr("ADMIN_PASSWORD", "admin123")
	name := envOr("ADMIN_NAME", "Administrator")

	userRepo := repository.NewUserRepository(gormDB)
	ctx := context.Background()

	existing, err := userRepo.FindByEmail(ctx, email)
	if err != nil && err != gorm.ErrRecordNotFound {
		log.Fatalf("Failed to look up admin user: %v", err)
	}
	if existing != nil && err == nil {
		log.Printf("Admin user %s already exists, nothing to do", email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	hash := string(hashed)

	admin := &model.User{
		Name:          name,
		Email:         email,
		Phone:         envOr("ADMIN_PHONE", "+10000000000"),
		PasswordHash:  &hash,
		Role:          model.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user %s created", email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
