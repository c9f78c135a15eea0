package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) promptCmd() *cobra.Command {
	var (
		reportID  string
		questions []int
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Build grounded prompts from expanded hits",
		Long:  `Builds the prompts of the given questions, or of every indexed question when --question is omitted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireReport(reportID); err != nil {
				return err
			}

			ids, err := a.svc.GeneratePrompts(cmd.Context(), reportID, questions)
			if err != nil {
				return err
			}
			cmd.Printf("Generated %d prompts for report %s\n", len(ids), reportID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report id")
	cmd.Flags().IntSliceVar(&questions, "question", nil, "question ids (repeatable or comma separated)")
	return cmd
}
