package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rag-pipeline-be/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Services is the slice of the container the commands need.
type Services struct {
	Projects service.IProjectService
	Ingest   service.IIngestService
	Vectors  service.IVectorIndexService
	NLP      service.INLPService
}

// Loader builds the services on first use and returns a release func.
type Loader func(ctx context.Context) (*Services, func() error, error)

type app struct {
	load     Loader
	services *Services
	release  func() error
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func NewRootCommand(load Loader) *cobra.Command {
	a := &app{load: load}

	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Operate the retrieval pipeline from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.release == nil {
				return nil
			}
			return a.release()
		},
	}

	root.AddCommand(
		newProjectCommand(a),
		newIngestCommand(a),
		newIndexCommand(a),
		newSearchCommand(a),
		newAnswerCommand(a),
	)
	return root
}

func (a *app) get(ctx context.Context) (*Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	if a.load == nil {
		return nil, errors.New("services not configured")
	}
	svc, release, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	a.services, a.release = svc, release
	return svc, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
