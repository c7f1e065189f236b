package bextract

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bextract %s%s\n", version, revision())
		},
	}
	rootCmd.AddCommand(cmd)
}

// revision returns " (<vcs revision>)" when the binary carries build info.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			rev := s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return " (" + rev + ")"
		}
	}
	return ""
}
