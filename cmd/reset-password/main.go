package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"go-sales-ledger/internal/config"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/pkg/database"
	"go-sales-ledger/pkg/logger"
	"go-sales-ledger/pkg/password"

	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	newPassword := flag.String("password", "", "new password, at least 6 characters")
	flag.Parse()

	// 1. Load Env
	_ = godotenv.Load()
	cfg, err := config.LoadMaintenance()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if *email == "" || len(*newPassword) < 6 {
		flag.Usage()
		os.Exit(2)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.DSN(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.WithError(err).WithField("email", *email).Fatal("User not found")
	}

	// 4. Hash new password
	hashed, err := password.NewBcrypt(cfg.BcryptCost).Hash(*newPassword)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash password")
	}

	// 5. Update and end the current session
	if err := users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		log.WithError(err).Fatal("Failed to update password")
	}
	if err := users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		log.WithError(err).Fatal("Failed to clear refresh token")
	}

	log.WithField("email", user.Email).Info("Password has been reset")
}
