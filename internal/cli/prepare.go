package cli

import (
	"path/filepath"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/spf13/cobra"
)

func (a *app) prepareCmd() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "prepare <pdf>",
		Short: "Extract, clean, chunk and index a report PDF",
		Long: `Extracts the text of the PDF, cleans and segments it, writes the chunks of
every category and builds the category and question indexes. An existing index
of the report is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf := args[0]
			if reportID == "" {
				reportID = strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
			}

			res, err := a.svc.Prepare(cmd.Context(), reportID, pdf)
			if err != nil {
				return err
			}

			cmd.Printf("Report %s prepared\n", reportID)
			cmd.Printf("  clean text: %s\n", res.CleanTextPath)
			for _, c := range entity.Categories() {
				cmd.Printf("  %-8s %d chunks, %d index rows\n", c, res.Chunks[c], res.IndexRows[c])
			}
			cmd.Printf("  questions: %d\n", res.Questions)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report id (defaults to the PDF file name)")
	return cmd
}
