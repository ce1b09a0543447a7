package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/weftlabs/weft/pkg/cmd"
	"github.com/weftlabs/weft/pkg/log"
	"github.com/weftlabs/weft/pkg/otelhelper"
	"github.com/weftlabs/weft/pkg/uploader"
)

const defaultPort = 8091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "weft-api",
		Usage:                 "Create, edit and run node-based content workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:     "job-service-url",
				Usage:    "Base URL of the execution job service",
				Required: true,
				Sources:  cli.EnvVars("JOB_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:     "jwt-secret",
				Usage:    "HMAC secret for verifying bearer tokens",
				Required: true,
				Sources:  cli.EnvVars("JWT_SECRET"),
			},
			&cli.StringFlag{
				Name:    "upload-base-url",
				Usage:   "Base URL of the asset pipeline",
				Sources: cli.EnvVars("UPLOAD_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "upload-auth-key",
				Usage:   "Auth key for the asset pipeline",
				Sources: cli.EnvVars("UPLOAD_AUTH_KEY"),
			},
			&cli.StringFlag{
				Name:    "upload-template-image",
				Usage:   "Asset pipeline template ID for image uploads",
				Sources: cli.EnvVars("UPLOAD_TEMPLATE_IMAGE"),
			},
			&cli.StringFlag{
				Name:    "upload-template-video",
				Usage:   "Asset pipeline template ID for video uploads",
				Sources: cli.EnvVars("UPLOAD_TEMPLATE_VIDEO"),
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

			logger.InfoContext(ctx, "Initializing Weft API")

			if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
				if _, err := otelhelper.NewTracer(ctx, "weft-api"); err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)
				}
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "weft-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewCapabilityRegistry(command.String("job-service-url"), logger)

			uploaderClient := uploader.NewClient(uploader.Config{
				BaseURL:       command.String("upload-base-url"),
				AuthKey:       command.String("upload-auth-key"),
				ImageTemplate: command.String("upload-template-image"),
				VideoTemplate: command.String("upload-template-video"),
			}, logger)

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				uploaderClient,
				[]byte(command.String("jwt-secret")),
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
