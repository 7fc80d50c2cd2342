package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/aurelia-hq/strand/pkg/cmd"
	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/scheduler"
	"github.com/aurelia-hq/strand/pkg/triggers/schedule"
)

const defaultMetricsPort = 9092

func main() {
	command := &cli.Command{
		Name:                  "strand-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Evaluate schedule triggers and run the offline analysis jobs",
		Flags: []cli.Flag{
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

			logger := log.WithModule("strand-scheduler")

			logger.InfoContext(ctx, "Initializing strand scheduler")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			go serveMetrics(ctx, logger, command.Int("metrics-port"))

			poller := schedule.NewPoller(persistence.TriggerRepository(), eventBus)
			jobs := NewSystemJobs(persistence, logger)

			// The poll tick runs through the system cron so a slow poll is
			// skipped rather than stacked, keeping the poller at concurrency=1.
			system := scheduler.New()
			if err := system.Register(ctx, scheduler.PollTickSpec, "schedule-poll", func(ctx context.Context) error {
				poller.PollOnce(ctx)

				return nil
			}); err != nil {
				return err
			}

			if err := system.Register(ctx, scheduler.NightlyInsightsSpec, "nightly-insights", jobs.NightlyInsights); err != nil {
				return err
			}

			if err := system.Register(ctx, scheduler.OptimizationSweepSpec, "optimization-sweep", jobs.OptimizationSweep); err != nil {
				return err
			}

			system.Start()

			logger.InfoContext(ctx, "Scheduler started")

			<-ctx.Done()

			logger.Info("Shutting down scheduler...")
			system.Stop()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
