package cli

import (
	"github.com/futig/report-grounder/internal/entity"
	"github.com/spf13/cobra"
)

func (a *app) sendCmd() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Answer every generated prompt of a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireReport(reportID); err != nil {
				return err
			}

			results, err := a.svc.SendAll(cmd.Context(), reportID)
			if err != nil {
				return err
			}

			counts := make(map[entity.AnswerStatus]int)
			for _, r := range results {
				counts[r.Status]++
				cmd.Printf("  soru %d: %s\n", r.QuestionID, r.Status)
			}
			cmd.Printf("Answered %d questions: %d found, %d not found, %d errors\n",
				len(results),
				counts[entity.AnswerStatusFound],
				counts[entity.AnswerStatusNotFound],
				counts[entity.AnswerStatusError],
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report id")
	return cmd
}
