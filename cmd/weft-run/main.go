// Command weft-run imports a workflow document and executes it headless,
// printing the run record as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"github.com/weftlabs/weft/pkg/cmd"
	"github.com/weftlabs/weft/pkg/graph"
	"github.com/weftlabs/weft/pkg/log"
	"github.com/weftlabs/weft/pkg/runner"
)

func main() {
	logger := log.WithModule("run")

	command := &cli.Command{
		Name:                  "weft-run",
		Usage:                 "Run a workflow document from a file",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow document JSON",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "job-service-url",
				Usage:    "Base URL of the execution job service",
				Required: true,
				Sources:  cli.EnvVars("JOB_SERVICE_URL"),
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

			payload, err := os.ReadFile(filepath.Clean(command.String("file")))
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			g := graph.New(logger)
			if err := g.ImportJSON(payload); err != nil {
				return fmt.Errorf("failed to import document: %w", err)
			}

			registry := cmd.NewCapabilityRegistry(command.String("job-service-url"), logger)
			workflowRunner := runner.New(registry, nil, logger)

			run, err := workflowRunner.RunWorkflow(ctx, g, 0)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			output, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal run record: %w", err)
			}

			fmt.Println(string(output))

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("weft-run failed", "error", err)
		os.Exit(1)
	}
}
