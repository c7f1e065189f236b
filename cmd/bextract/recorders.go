package bextract

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/bextract/pkg/bulk"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recorders",
		Short: "List the builtin engine's recorders",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			for _, name := range bulk.RecorderNames() {
				fmt.Fprintf(w, "feature  %s\n", name)
				fmt.Fprintf(w, "histogram  %s_histogram\n", name)
			}
			for _, name := range bulk.CarverNames() {
				fmt.Fprintf(w, "carve  %s\n", name)
			}
		},
	}
	rootCmd.AddCommand(cmd)
}
