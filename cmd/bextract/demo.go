package bextract

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/redactyl/bextract/pkg/bulk"
)

// demoBuffer is the sample buffer the demo command scans.
const demoBuffer = "ABCDEFG  demo@api.com Just a demo 617-555-1212 ok!"

func init() {
	cmd := &cobra.Command{
		Use:   "demo [text]",
		Short: "Show the raw and demultiplexed callbacks for a sample buffer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := demoBuffer
			if len(args) == 1 {
				buf = args[0]
			}
			lib, err := openLibrary(effective)
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), lib, buf)
		},
	}
	rootCmd.AddCommand(cmd)
}

// runDemo scans buf twice: once printing every raw callback argument, once
// through per-kind handlers.
func runDemo(w io.Writer, lib bulk.Library, buf string) error {
	raw, err := bulk.OpenRaw(lib, func(flag bulk.Flag, aux uint32, recorder, position string, feature, context []byte) bulk.Status {
		fmt.Fprintf(w, "flag: %d (%s) arg: %d recorder: %s pos: %s feature: %q feature_len: %d context: %q context_len: %d\n",
			flag, flag, aux, recorder, position, feature, len(feature), context, len(context))
		return bulk.Continue
	})
	if err != nil {
		return err
	}
	serr := raw.SubmitString(buf)
	if cerr := raw.Close(); serr == nil {
		serr = cerr
	}
	if serr != nil {
		return serr
	}

	fmt.Fprintln(w)
	hs := bulk.Handlers{
		Feature: func(ev bulk.FeatureEvent) bulk.Status {
			fmt.Fprintf(w, "got a feature from %s ( %s ) ( %s )\n", ev.Recorder, ev.Feature, ev.Context)
			return bulk.Continue
		},
		Histogram: func(ev bulk.HistogramEvent) bulk.Status {
			fmt.Fprintf(w, "got histogram data from %s : %s x %d\n", ev.Recorder, ev.Feature, ev.Count)
			return bulk.Continue
		},
		Carve: func(ev bulk.CarveEvent) bulk.Status {
			fmt.Fprintf(w, "got carved data from %s with filename %s and length %d\n", ev.Recorder, ev.Filename, len(ev.Data))
			return bulk.Continue
		},
	}
	return bulk.With(lib, hs, func(h *bulk.Handle) error {
		return h.SubmitString(buf)
	})
}
