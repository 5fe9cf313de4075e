package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/database"
	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
	"donation-platform/internal/services"
)

func main() {
	var (
		email     = flag.String("email", "", "Email address of the back-office user")
		password  = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Password (defaults to $ADMIN_PASSWORD)")
		firstName = flag.String("first-name", "Admin", "First name")
		lastName  = flag.String("last-name", "", "Last name")
		role      = flag.String("role", string(models.UserRoleAdmin), "Role: admin or editor")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/create-admin -email admin@example.org -password '<password>' [-role editor]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	authService := services.NewAuthService(repositories.NewUserRepository(db.DB))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, created, err := authService.EnsureUser(ctx, *email, *password, *firstName, *lastName, models.UserRole(*role))
	if err != nil {
		log.Fatal("Failed to save user:", err)
	}

	if created {
		fmt.Printf("Created %s user %s <%s> (ID %d)\n", user.Role, user.FullName(), user.Email, user.ID)
	} else {
		fmt.Printf("Updated password and role of %s (ID %d, role %s)\n", user.Email, user.ID, user.Role)
	}
}
