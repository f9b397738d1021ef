package server

import (
	"context"

	"productapi/internal/docs"
	"productapi/internal/handlers"
	"productapi/internal/middleware"
	"productapi/internal/repositories"
	"productapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ProductsPrefix is where the products router is mounted.
const ProductsPrefix = "/api/products"

// Options wires the dependencies of the HTTP application.
type Options struct {
	Repository  repositories.ProductRepository
	Publisher   services.EventPublisher
	Ping        func(ctx context.Context) error
	Logger      *logrus.Logger
	DocsEnabled bool
	AccessLog   bool
}

// New builds the Fiber application with every route mounted.
func New(opts Options) (*fiber.App, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:      "products-api",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{Output: log.Writer()}))
	}

	productService := services.NewProductService(opts.Repository, opts.Publisher, log)
	productHandler := handlers.NewProductHandler(productService, log)
	productHandler.RegisterRoutes(app.Group(ProductsPrefix))

	app.Get("/health", handlers.NewHealthHandler(opts.Ping).HandleHealth)

	if opts.DocsEnabled {
		if err := docs.Register(app, "/docs"); err != nil {
			return nil, err
		}
	}

	return app, nil
}
