package bextract

import (
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/redactyl/bextract/internal/audit"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history [root]",
		Short: "List past scans recorded in the audit log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			records, err := audit.NewAuditLog(abs).LoadHistory()
			if err != nil {
				return err
			}
			if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
				records = records[:flagHistoryLimit]
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("WHEN", "SCAN", "ENGINE", "INPUTS", "EVENTS", "NEW", "DURATION")
			for _, r := range records {
				err := table.Append(
					r.Timestamp.Format("2006-01-02 15:04:05"),
					r.ScanID,
					r.Engine,
					fmt.Sprintf("%d (+%d cached)", r.InputsScanned, r.CachedInputs),
					fmt.Sprint(r.TotalEvents),
					fmt.Sprint(r.NewEvents),
					r.Duration,
				)
				if err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many scans (0 = all)")
	rootCmd.AddCommand(cmd)
}
