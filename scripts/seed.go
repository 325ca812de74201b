//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/database"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"github.com/hugh/teamspace/pkg/config"
	"github.com/hugh/teamspace/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, cfg.Access, nil, nil, logger)

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	name := os.Getenv("SEED_NAME")
	orgName := os.Getenv("SEED_ORG_NAME")

	if email == "" {
		email = "founder@example.com"
	}
	if password == "" {
		password = "founder123!"
	}
	if name == "" {
		name = "Founder"
	}
	if orgName == "" {
		orgName = "Default Organization"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		FullName: name,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Printf("Seed user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create seed user: %v", err)
	}

	orgService := orgs.NewService(directory.NewStore(db), logger)
	org, err := orgService.CreateOrganization(context.Background(), resp.User.ID, orgName, "")
	if err != nil {
		log.Fatalf("failed to create seed organization: %v", err)
	}

	fmt.Printf("Seed user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Organization: %s\n", org.Name)
	if org.JoinCode != nil {
		fmt.Printf("Join code: %s\n", *org.JoinCode)
	}
	fmt.Printf("Token: %s\n", resp.Token)
}
