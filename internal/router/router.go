package router

import (
	"go-sales-ledger/internal/handler"
	"go-sales-ledger/internal/middleware"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/service"
	"go-sales-ledger/internal/ws"
	"go-sales-ledger/pkg/metrics"
	"go-sales-ledger/pkg/ratelimit"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP surface needs. Limiter, Hub and Metrics are
// optional; a nil value switches the matching feature off.
type Deps struct {
	Log          *logrus.Logger
	CORSOrigins  string
	Store        handler.Pinger
	Auth         service.AuthService
	Products     service.ProductService
	Transactions service.TransactionService
	Limiter      ratelimit.Limiter
	Hub          *ws.Hub
	Metrics      *metrics.Metrics
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Sales Ledger v1.0",
		ErrorHandler: handler.ErrorHandler(d.Log),
	})

	// Middleware
	app.Use(requestid.New(requestid.Config{ContextKey: handler.RequestIDKey}))
	app.Use(logger.New(logger.Config{
		Output: d.Log.Writer(),
		Format: "${locals:" + handler.RequestIDKey + "} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: d.CORSOrigins}))
	app.Use(middleware.Metrics(d.Metrics))

	authHandler := handler.NewAuthHandler(d.Auth)
	productHandler := handler.NewProductHandler(d.Products)
	transactionHandler := handler.NewTransactionHandler(d.Transactions)
	healthHandler := handler.NewHealthHandler(d.Store)

	app.Get("/health", healthHandler.Check)
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// ============ PUBLIC ROUTES ============
	auth := app.Group("/auth")
	if d.Limiter != nil {
		auth.Use(middleware.Throttle(d.Limiter, "auth", d.Log))
	}
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(d.Auth)

	product := app.Group("/product", requireAuth)
	product.Get("/", productHandler.List)
	product.Post("/", productHandler.Create)
	product.Get("/:id", productHandler.Get)
	product.Put("/:id", productHandler.Update)
	product.Delete("/:id", productHandler.Delete)

	transaction := app.Group("/transaction", requireAuth)
	transaction.Get("/", transactionHandler.List)
	transaction.Post("/", transactionHandler.Create)
	transaction.Get("/:id", transactionHandler.Get)
	transaction.Put("/:id", transactionHandler.Update)
	transaction.Delete("/:id", transactionHandler.Delete)

	// WebSocket Route
	if d.Hub != nil {
		app.Get("/ws", middleware.RequireSocketAuth(d.Auth), websocket.New(func(c *websocket.Conn) {
			user, ok := c.Locals(middleware.UserKey).(*model.User)
			if !ok {
				c.Close()
				return
			}
			d.Hub.Serve(user.ID, c)
		}))
	}

	app.Use(handler.NotFound)
	return app
}
