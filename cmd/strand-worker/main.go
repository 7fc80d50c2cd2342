package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/aurelia-hq/strand/pkg/cmd"
	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/otelhelper"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/workflow"
)

const defaultMetricsPort = 9090

func main() {
	command := &cli.Command{
		Name:                  "strand-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute agent workflow run jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.IntFlag{
				Name:    "metrics-port",
				Usage:   "Port for the Prometheus metrics listener",
				Value:   defaultMetricsPort,
				Sources: cli.EnvVars("METRICS_PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("strand-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing strand worker")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := otelhelper.NewTracer(ctx, "strand-worker"); err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			pub, sub := cmd.NewChannel(command.String("event-bus"), logger)
			eventBus := eventbus.NewWatermillEventBus(pub, sub)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)

			go serveMetrics(ctx, logger, command.Int("metrics-port"))

			// Capabilities are deployment wiring. Nil fields mean the capability
			// is unavailable here and executors that need it fail cleanly.
			runner := workflow.NewRunner(
				persistence.WorkflowRepository(),
				persistence.ExecutionRepository(),
				persistence.TraceRepository(),
				registry,
				eventBus,
				protocol.Capabilities{},
				workerID,
			)

			worker, err := NewWorker(workerID, runner, sub, logger)
			if err != nil {
				return err
			}

			if err := worker.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker stopped with error", "error", err)

				return err
			}

			logger.InfoContext(ctx, "Worker shut down")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
