// Package main provides the Weft API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/eventbus"
	"github.com/weftlabs/weft/pkg/persistence"
	"github.com/weftlabs/weft/pkg/runner"
	"github.com/weftlabs/weft/pkg/services"
	"github.com/weftlabs/weft/pkg/uploader"
	"github.com/weftlabs/weft/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *capability.Registry
	eventBus    eventbus.EventBus
	uploader    *uploader.Client
	jwtSecret   []byte
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *capability.Registry,
	eventBus eventbus.EventBus,
	uploaderClient *uploader.Client,
	jwtSecret []byte,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		uploader:    uploaderClient,
		jwtSecret:   jwtSecret,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence)
	workflowRunner := runner.New(a.registry, a.eventBus, a.logger)
	executionService := services.NewExecution(a.persistence, workflowRunner, a.logger)

	handlers := web.NewAPIHandlers(workflowService, executionService, a.uploader, a.validate, a.registry, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Weft API")
	})

	app.Get("/health", handlers.HealthCheck)

	authed := app.Group("/", web.NewAuthMiddleware(a.jwtSecret))
	handlers.RegisterRoutes(authed)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
