package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/redactyl/bextract/pkg/bulk"
)

type PrintOptions struct {
	NoColor       bool
	Duration      time.Duration
	InputsScanned int
	BytesScanned  int64
}

var (
	featureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	histogramStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	carveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ColorEnabled reports whether w is a terminal and color was not disabled.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Sort orders records by source, then numeric position, then kind.
func Sort(rs []bulk.Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if pa, pb := posKey(a.Position), posKey(b.Position); pa != pb {
			return pa < pb
		}
		return a.Kind < b.Kind
	})
}

// posKey left-pads numeric positions so they sort by value.
func posKey(p string) string {
	if len(p) < 20 {
		return strings.Repeat("0", 20-len(p)) + p
	}
	return p
}

// PrintText writes one line per record.
func PrintText(w io.Writer, rs []bulk.Record, opts PrintOptions) {
	Sort(rs)
	if len(rs) == 0 {
		fmt.Fprintln(w, "No features found")
	} else {
		maxRec := 8
		for _, r := range rs {
			if l := len(r.Recorder); l > maxRec {
				maxRec = l
			}
		}
		fmt.Fprintf(w, "Events: %d\n", len(rs))
		for _, r := range rs {
			kind := r.Kind
			if !opts.NoColor {
				kind = colorKind(r.Kind)
			}
			fmt.Fprintf(w, "%-9s %-*s %s@%s  %s\n", kind, maxRec, r.Recorder, r.Source, r.Position, value(r))
		}
	}
	footer(w, rs, opts)
}

// PrintTable renders records with box borders.
func PrintTable(w io.Writer, rs []bulk.Record, opts PrintOptions) error {
	Sort(rs)
	if len(rs) == 0 {
		fmt.Fprintln(w, "No features found")
		footer(w, rs, opts)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("KIND", "RECORDER", "SOURCE", "POSITION", "VALUE")
	for _, r := range rs {
		if err := table.Append(r.Kind, r.Recorder, r.Source, r.Position, value(r)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	footer(w, rs, opts)
	return nil
}

func footer(w io.Writer, rs []bulk.Record, opts PrintOptions) {
	if opts.Duration <= 0 && opts.InputsScanned <= 0 {
		return
	}
	feat, hist, carve := 0, 0, 0
	for _, r := range rs {
		switch r.Kind {
		case "feature":
			feat++
		case "histogram":
			hist++
		case "carve":
			carve++
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events: %d (features: %d, histograms: %d, carved: %d)\n", len(rs), feat, hist, carve)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.InputsScanned > 0 {
		fmt.Fprintf(w, "Inputs scanned: %d (%d bytes)\n", opts.InputsScanned, opts.BytesScanned)
	}
}

func value(r bulk.Record) string {
	switch r.Kind {
	case "histogram":
		return fmt.Sprintf("%s x%d", printable(r.Feature), r.Count)
	case "carve":
		return fmt.Sprintf("%s (%d bytes)", r.Filename, r.Length)
	default:
		return printable(r.Feature)
	}
}

func printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			fmt.Fprintf(&sb, "\\x%02x", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func colorKind(k string) string {
	switch k {
	case "carve":
		return carveStyle.Render(k)
	case "histogram":
		return histogramStyle.Render(k)
	default:
		return featureStyle.Render(k)
	}
}
