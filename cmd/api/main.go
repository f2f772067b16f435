package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-sales-ledger/internal/config"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/internal/router"
	"go-sales-ledger/internal/service"
	"go-sales-ledger/internal/ws"
	"go-sales-ledger/pkg/database"
	"go-sales-ledger/pkg/jwt"
	"go-sales-ledger/pkg/logger"
	"go-sales-ledger/pkg/metrics"
	"go-sales-ledger/pkg/password"
	"go-sales-ledger/pkg/ratelimit"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Warn(".env file not found, using process environment")
	}
	if cfg.AccessOutlivesRefresh() {
		log.WithFields(logrus.Fields{
			"access_ttl":  cfg.Token.AccessTTL,
			"refresh_ttl": cfg.Token.RefreshTTL,
		}).Warn("Access tokens outlive refresh tokens")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.DSN(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database handle")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 4. Auth throttle: shared redis window when configured, per-process otherwise
	var limiter ratelimit.Limiter
	if cfg.Throttle.Enabled {
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.WithError(err).Warn("Redis unreachable, requests will not be throttled until it recovers")
			}
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.Throttle.Limit, cfg.Throttle.Window)
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.Throttle.Limit, cfg.Throttle.Window)
		}
	}

	// 5. Dependency Injection (Wiring Layers)
	m := metrics.New()
	tokens := jwt.NewManager(jwt.Config{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
	})

	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	app := router.New(router.Deps{
		Log:          log,
		CORSOrigins:  cfg.CORSOrigins,
		Store:        sqlDB,
		Auth:         service.NewAuthService(userRepo, password.NewBcrypt(cfg.BcryptCost), tokens, m),
		Products:     service.NewProductService(productRepo, db, wsHub),
		Transactions: service.NewTransactionService(productRepo, txRepo, db, wsHub, m),
		Limiter:      limiter,
		Hub:          wsHub,
		Metrics:      m,
	})

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("Server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stop()
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server exited")
}
