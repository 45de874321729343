package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rag-pipeline-be/internal/bootstrap"
	"rag-pipeline-be/internal/cli"
	"rag-pipeline-be/internal/config"
	"rag-pipeline-be/internal/pkg/logger"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (*cli.Services, func() error, error) {
		cfg := config.Load()
		container, err := bootstrap.NewContainer(ctx, cfg, bootstrap.WithLogger(logger.NewIsolatedLogger(cfg.App.LogFilePath)))
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
			Projects: container.ProjectService,
			Ingest:   container.IngestService,
			Vectors:  container.VectorIndexService,
			NLP:      container.NLPService,
		}, container.Close, nil
	})

	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
