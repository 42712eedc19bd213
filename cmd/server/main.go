// main.go
//
// Tour operations back-office data service
//
// This file is part of tourdesk.
// tourdesk is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// tourdesk is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with tourdesk.
// If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/mascarene/tourdesk/internal/config"
	"github.com/mascarene/tourdesk/internal/database"
	"github.com/mascarene/tourdesk/internal/handlers"
	"github.com/mascarene/tourdesk/internal/middleware"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/repository"
	"github.com/mascarene/tourdesk/internal/services"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/tenancy"
	"github.com/mascarene/tourdesk/internal/types"

	_ "github.com/mascarene/tourdesk/docs/api" // Swagger docs
)

// @title TourDesk API
// @version 1.0.0
// @description Tour operations back-office data service
// @termsOfService http://swagger.io/terms/

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Authorizer
	if err := services.InitAuthorizer(cfg, "http", "localhost:"+cfg.Port); err != nil {
		log.Fatalf("Failed to initialize authorizer: %v", err)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Change hub, optionally bridged across instances over NATS
	hub := stream.NewHub()
	var bridge *stream.Bridge
	if cfg.NATSURL != "" {
		bridge, err = stream.ConnectBridge(hub, cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect change bridge: %v", err)
		}
		defer bridge.Close()
	}

	// Tenancy resolution and notifications
	tenants, err := tenancy.NewResolver(rootCtx, db, hub)
	if err != nil {
		log.Fatalf("Failed to create tenancy resolver: %v", err)
	}
	defer tenants.Close()

	feed := notify.NewFeed()
	profiles := &session.Profiles{DB: db}

	deps := repository.Deps{
		DB:       db,
		Hub:      hub,
		Profiles: profiles,
		Tenants:  tenants,
		Notify:   feed,
	}

	// One repository per collection
	companies := repository.New[models.Company](deps, stream.TopicCompanies)
	users := repository.New[models.UserProfile](deps, stream.TopicUsers)
	partners := repository.New[models.Partner](deps, stream.TopicPartners)
	guests := repository.New[models.Guest](deps, stream.TopicGuests)
	items := repository.New[models.Item](deps, stream.TopicItems)
	products := repository.New[models.Product](deps, stream.TopicProducts)
	vehicleCategories := repository.New[models.VehicleCategory](deps, stream.TopicVehicleCategories)
	currencies := repository.New[models.Currency](deps, stream.TopicCurrencies)
	salesOrders := repository.New[models.SalesOrder](deps, stream.TopicSalesOrders)
	accommodations := repository.New[models.Accommodation](deps, stream.TopicAccommodations)

	// View sessions
	views := handlers.NewViewRegistry(cfg.ViewTTL)
	handlers.RegisterViewFactories(views, handlers.ViewDeps{
		Companies:         companies,
		Users:             users,
		Partners:          partners,
		Guests:            guests,
		Items:             items,
		Products:          products,
		VehicleCategories: vehicleCategories,
		Currencies:        currencies,
		SalesOrders:       salesOrders,
		Accommodations:    accommodations,
	})
	views.StartJanitor(rootCtx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("tourdesk")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health endpoint (unauthenticated, used by the container healthcheck)
	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db, bridge)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	// Entity routes (all require user authentication)
	companiesHandler := &handlers.CompaniesHandler{
		Resource: handlers.Resource[models.Company, *models.Company]{Repo: companies, Name: "companies"},
		DB:       db,
	}
	companiesHandler.Register(api.Group("/companies", middleware.AuthAdmin()))

	(&handlers.Resource[models.UserProfile, *models.UserProfile]{Repo: users, Name: "users"}).
		Register(api.Group("/users", middleware.AuthAdmin()))
	(&handlers.Resource[models.Partner, *models.Partner]{Repo: partners, Name: "partners"}).
		Register(api.Group("/partners", middleware.AuthUser()))
	(&handlers.Resource[models.Guest, *models.Guest]{Repo: guests, Name: "guests"}).
		Register(api.Group("/guests", middleware.AuthUser()))
	(&handlers.Resource[models.Item, *models.Item]{Repo: items, Name: "items"}).
		Register(api.Group("/items", middleware.AuthUser()))
	(&handlers.Resource[models.Product, *models.Product]{Repo: products, Name: "products"}).
		Register(api.Group("/products", middleware.AuthUser()))
	(&handlers.Resource[models.VehicleCategory, *models.VehicleCategory]{Repo: vehicleCategories, Name: "vehicle-categories"}).
		Register(api.Group("/vehicle-categories", middleware.AuthUser()))
	(&handlers.Resource[models.Currency, *models.Currency]{Repo: currencies, Name: "currencies"}).
		Register(api.Group("/currencies", middleware.AuthUser()))
	(&handlers.Resource[models.Accommodation, *models.Accommodation]{Repo: accommodations, Name: "accommodations"}).
		Register(api.Group("/accommodations", middleware.AuthUser()))

	salesOrdersHandler := &handlers.SalesOrdersHandler{
		Resource: handlers.Resource[models.SalesOrder, *models.SalesOrder]{Repo: salesOrders, Name: "sales-orders"},
		DB:       db,
		Hub:      hub,
		Notify:   feed,
	}
	salesOrdersHandler.Register(api.Group("/sales-orders", middleware.AuthUser()))

	// View sessions
	viewsHandler := &handlers.ViewsHandler{Registry: views, Notify: feed}
	viewsHandler.Register(api.Group("/views", middleware.AuthUser()))

	// Admin user provisioning
	adminUsers := &handlers.AdminUsersHandler{Cfg: cfg, DB: db, Hub: hub}
	api.Post("/admin/users", middleware.AuthAdmin(), adminUsers.Create)

	// Notices
	noticesHandler := &handlers.NoticesHandler{Feed: feed}
	api.Get("/notices", middleware.AuthUser(), noticesHandler.List)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		rootCancel()
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
