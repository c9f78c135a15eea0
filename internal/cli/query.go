package cli

import (
	"encoding/json"
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/spf13/cobra"
)

const snippetRunes = 160

func (a *app) queryCmd() *cobra.Command {
	var (
		reportID string
		topK     int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Search every category index of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireReport(reportID); err != nil {
				return err
			}

			resp, err := a.svc.Query(cmd.Context(), &entity.QueryRequest{
				ReportID: reportID,
				Question: args[0],
				TopK:     topK,
			})
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal hits: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			if len(resp.Hits) == 0 {
				cmd.Println("No results found.")
				return nil
			}
			for _, h := range resp.Hits {
				cmd.Printf("  [%d] %-8s %.4f  %s\n", h.Rank, h.Category, h.Score, snippet(h.ChunkText))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report id")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of hits (defaults to TOPK)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print hits as JSON")
	return cmd
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return string(r[:snippetRunes]) + "…"
}
