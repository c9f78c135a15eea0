package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) retrieveCmd() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Retrieve and expand the top hits of every question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireReport(reportID); err != nil {
				return err
			}

			n, err := a.svc.RetrieveAll(cmd.Context(), reportID)
			if err != nil {
				return err
			}
			cmd.Printf("Expanded %d hit files for report %s\n", n, reportID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report id")
	return cmd
}
