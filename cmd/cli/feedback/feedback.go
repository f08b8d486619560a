package feedback

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/encryptoo/encryptoo/cmd/cli/output"
	"github.com/encryptoo/encryptoo/internal/config"
	fbstore "github.com/encryptoo/encryptoo/internal/feedback"
)

var FeedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Inspect submitted feedback",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feedback records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		store, err := fbstore.NewStore(cfg.FeedbackFile)
		if err != nil {
			return fmt.Errorf("open feedback store: %w", err)
		}

		records := store.Read()
		rows := make([][]interface{}, 0, len(records))
		for _, rec := range records {
			by := rec.SubmittedBy
			if by == "" {
				by = "anonymous"
			}
			rows = append(rows, []interface{}{rec.Timestamp, by, fmt.Sprintf("%v", rec.Fields)})
		}
		output.RenderTable([]string{"Time", "Submitted by", "Fields"}, rows)
		return nil
	},
}

func init() {
	FeedbackCmd.AddCommand(listCmd)
}
