// Package main provides the Procline API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/procline/procline/pkg/assignment"
	"github.com/procline/procline/pkg/conditions"
	"github.com/procline/procline/pkg/engine"
	"github.com/procline/procline/pkg/persistence"
	"github.com/procline/procline/pkg/services"
	"github.com/procline/procline/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	directory   services.Directory
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	directory services.Directory,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		directory:   directory,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflowService(a.persistence)
	processEngine := engine.New(conditions.NewEvaluator(), assignment.NewResolver(nil), nil)
	processService := services.NewProcessService(a.persistence, processEngine, a.directory)

	handlers := web.NewAPIHandlers(workflowService, processService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Procline API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/import", handlers.ImportWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/layout", handlers.AutoLayout)
	w.Get("/:id/export", handlers.ExportWorkflow)
	w.Get("/:id/instances", handlers.GetWorkflowInstances)
	w.Get("/:id/durations", handlers.GetWorkflowDurations)

	// Graph edit endpoints:
	w.Post("/:id/activities", handlers.CreateActivity)
	w.Patch("/:id/activities/:activityId", handlers.UpdateActivity)
	w.Delete("/:id/activities/:activityId", handlers.DeleteActivity)
	w.Post("/:id/transitions", handlers.CreateTransition)
	w.Delete("/:id/transitions/:transitionId", handlers.DeleteTransition)
	w.Post("/:id/activities/:activityId/fields", handlers.CreateField)
	w.Patch("/:id/activities/:activityId/fields/:fieldId", handlers.UpdateField)
	w.Delete("/:id/activities/:activityId/fields/:fieldId", handlers.DeleteField)
	w.Post("/:id/activities/:activityId/fields/:fieldId/reorder", handlers.ReorderField)

	i := app.Group("/instances")
	i.Post("/", handlers.StartInstance)
	i.Get("/:id", handlers.GetInstance)
	i.Post("/:id/advance", handlers.AdvanceInstance)
	i.Post("/:id/cancel", handlers.CancelInstance)
	i.Post("/:id/comments", handlers.CommentInstance)
	i.Get("/:id/history", handlers.GetInstanceHistory)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
