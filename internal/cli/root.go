// Package cli implements the grounder command line: batch preprocessing,
// retrieval, prompt building and answering of report workspaces.
package cli

import (
	"context"
	"errors"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/answer"
	"github.com/futig/report-grounder/internal/usecase/report"
	"github.com/spf13/cobra"
)

// Service is the part of the report use case the CLI drives.
type Service interface {
	Prepare(ctx context.Context, reportID, pdfPath string) (*report.PrepareResult, error)
	RetrieveAll(ctx context.Context, reportID string) (int, error)
	GeneratePrompts(ctx context.Context, reportID string, ids []int) ([]int, error)
	SendAll(ctx context.Context, reportID string) ([]answer.Result, error)
	Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error)
}

// Factory builds the service for an environment. The returned func releases
// it.
type Factory func(environment string) (Service, func(), error)

type app struct {
	factory     Factory
	environment string
	svc         Service
	release     func()
}

// NewRootCmd returns the grounder command tree and a func that releases the
// service once the command has finished, whether or not it failed.
func NewRootCmd(factory Factory) (*cobra.Command, func()) {
	a := &app{factory: factory}

	root := &cobra.Command{
		Use:           "grounder",
		Short:         "Grounded question answering over annual report PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.factory(a.environment)
			if err != nil {
				return err
			}
			a.svc, a.release = svc, release
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.environment, "env", "local", "environment whose .env file is loaded")

	root.AddCommand(
		a.prepareCmd(),
		a.retrieveCmd(),
		a.promptCmd(),
		a.sendCmd(),
		a.queryCmd(),
	)
	return root, a.close
}

func (a *app) close() {
	if a.release != nil {
		a.release()
		a.release = nil
	}
}

func requireReport(reportID string) error {
	if reportID == "" {
		return errors.New("--report is required")
	}
	return nil
}
