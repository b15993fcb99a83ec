// seed inserts development sample users for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"loftbase/identity/internal/config"
	"loftbase/identity/internal/db"
	"loftbase/identity/internal/security"
	userdomain "loftbase/identity/internal/user/domain"
	userrepo "loftbase/identity/internal/user/repository"
)

const (
	devUserEmail      = "dev@example.com"
	devInactiveEmail  = "suspended@example.com"
	devOtherTenant    = "acme2"
	devTenant         = "acme"
	devPassword       = "password123"
	devUserID         = "dev-user-001"
	devInactiveUserID = "dev-user-002"
	devOtherUserID    = "dev-user-003"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; set it in the environment or .env")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, devUserEmail, devTenant)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	seedUsers := []*userdomain.User{
		{
			ID:           devUserID,
			Email:        devUserEmail,
			TenantID:     devTenant,
			FirstName:    "Dev",
			LastName:     "User",
			Status:       userdomain.UserStatusActive,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           devInactiveUserID,
			Email:        devInactiveEmail,
			TenantID:     devTenant,
			FirstName:    "Suspended",
			LastName:     "User",
			Status:       userdomain.UserStatusInactive,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		// Same email as the dev user in a second tenant, for exercising
		// tenant-scoped lookups.
		{
			ID:           devOtherUserID,
			Email:        devUserEmail,
			TenantID:     devOtherTenant,
			FirstName:    "Dev",
			LastName:     "Elsewhere",
			Status:       userdomain.UserStatusActive,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, u := range seedUsers {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s (tenant %s)\n", devUserEmail, devPassword, devTenant)
	fmt.Printf("Inactive login: %s / %s (tenant %s)\n", devInactiveEmail, devPassword, devTenant)
}
