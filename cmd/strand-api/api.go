// Package main provides the strand API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	app         *fiber.App
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Strand API")
	})

	w := app.Group("/workflows")
	w.Get("/", a.GetWorkflows)
	w.Get("/:id", a.GetWorkflow)

	e := app.Group("/executions")
	e.Get("/", a.GetExecutions)
	e.Post("/", a.RequestExecution)
	e.Get("/:id", a.GetExecution)

	tr := app.Group("/traces")
	tr.Get("/", a.GetTraces)
	tr.Get("/:id", a.GetTrace)

	t := app.Group("/triggers")
	t.Get("/", a.GetTriggers)
	t.Post("/", a.CreateTrigger)

	app.Get("/insights", a.GetInsights)
	app.Get("/confirmations", a.GetConfirmations)
	app.Get("/optimizations", a.GetOptimizationRuns)

	p := app.Group("/proposals")
	p.Get("/", a.GetProposals)
	p.Get("/:id", a.GetProposal)
	p.Post("/:id/approve", a.ApproveProposal)
	p.Post("/:id/reject", a.RejectProposal)

	return app
}

func (a *API) Start(port int) error {
	a.app = a.App()

	return a.app.Listen(":" + strconv.Itoa(port))
}

func (a *API) Shutdown() error {
	if a.app == nil {
		return nil
	}

	return a.app.Shutdown()
}
