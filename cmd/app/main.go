package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/rs/zerolog/log"

	"github.com/wichananm65/uniapp-ecommerce/internal/ai"
	"github.com/wichananm65/uniapp-ecommerce/internal/cart"
	"github.com/wichananm65/uniapp-ecommerce/internal/category"
	"github.com/wichananm65/uniapp-ecommerce/internal/config"
	"github.com/wichananm65/uniapp-ecommerce/internal/database"
	"github.com/wichananm65/uniapp-ecommerce/internal/logging"
	"github.com/wichananm65/uniapp-ecommerce/internal/metrics"
	"github.com/wichananm65/uniapp-ecommerce/internal/order"
	"github.com/wichananm65/uniapp-ecommerce/internal/product"
	"github.com/wichananm65/uniapp-ecommerce/internal/recommended"
	"github.com/wichananm65/uniapp-ecommerce/internal/review"
	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

const (
	aiRequestsPerMinute = 60
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{Level: "info", Format: "console"})
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.Seed.Enabled {
		if err := database.Seed(ctx, db, database.SeedOptions{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminPassword: cfg.Seed.AdminPassword,
		}); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	m := metrics.New()
	secret := []byte(cfg.Auth.JWTSecret)

	userService := user.NewService(user.NewPostgresRepository(db), user.TokenConfig{Secret: secret, TTL: cfg.Auth.TokenTTL})
	categoryService := category.NewService(category.NewPostgresRepository(db))
	productService := product.NewService(product.NewPostgresRepository(db), categoryService, product.Options{
		SiteName: cfg.Catalog.SiteName,
		PageSize: cfg.Catalog.PageSize,
	})
	cartService := cart.NewService(cart.NewPostgresRepository(db), productService, m)
	orderService := order.NewService(order.NewPostgresRepository(db), m, cfg.Orders.PageSize)
	reviewService := review.NewService(review.NewPostgresRepository(db), productService, orderService, userService, review.Options{
		PageSize:    cfg.Reviews.PageSize,
		AutoApprove: cfg.Reviews.AutoApprove,
	})
	recommendedService := recommended.NewService(productService, orderService)
	aiService := ai.NewService(ai.NewPostgresTranslationRepository(db), productService, reviewService)

	userHandler := user.NewHandler(userService)
	categoryHandler := category.NewHandler(categoryService)
	productHandler := product.NewHandler(productService)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(orderService)
	reviewHandler := review.NewHandler(reviewService)
	recommendedHandler := recommended.NewHandler(recommendedService)
	aiHandler := ai.NewHandler(aiService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.Catalog.SiteName,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logging.Middleware())
	app.Use(m.Middleware())
	setupCORS(app, cfg.Server.AllowOrigin)
	app.Use(user.OptionalAuth(secret))
	app.Use("/api/v1/ai", ai.RateLimit(aiRequestsPerMinute, time.Minute))

	app.Get("/metrics", m.Handler())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := database.Ping(c.UserContext(), db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	reviewHandler.RegisterPublicRoutes(app)
	recommendedHandler.RegisterPublicRoutes(app)
	aiHandler.RegisterPublicRoutes(app)
	// product routes last: /api/v1/products/:slug would shadow more specific paths
	productHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
		},
	}))

	userHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	reviewHandler.RegisterProtectedRoutes(app)
	aiHandler.RegisterProtectedRoutes(app)

	admin := app.Group("/api/v1/admin", user.RequireAdmin)
	userHandler.RegisterAdminRoutes(admin)
	categoryHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	reviewHandler.RegisterAdminRoutes(admin)

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("addr", cfg.Addr()).Msg("storefront API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// errorHandler renders fiber and unexpected errors as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(code).JSON(fiber.Map{"message": "Une erreur interne est survenue."})
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}
