package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redactyl/bextract/pkg/bulk"
)

// ScanResults holds the events of the last scan grouped by input. Settings
// is the engine settings fingerprint the events were produced under; records
// are only valid for reuse under the same fingerprint.
type ScanResults struct {
	Settings string                   `json:"settings"`
	Saved    time.Time                `json:"saved"`
	Inputs   map[string][]bulk.Record `json:"inputs"`
}

// NewResults returns an empty result set for settings.
func NewResults(settings string) ScanResults {
	return ScanResults{Settings: settings, Inputs: map[string][]bulk.Record{}}
}

// Add stores the events of one input. An input with no events is recorded
// too so that it can be carried over as empty.
func (r ScanResults) Add(source string, rs []bulk.Record) {
	prev, ok := r.Inputs[source]
	if !ok {
		prev = make([]bulk.Record, 0, len(rs))
	}
	r.Inputs[source] = append(prev, rs...)
}

// Lookup returns the stored events of source if they were produced under
// settings.
func (r ScanResults) Lookup(settings, source string) ([]bulk.Record, bool) {
	if r.Settings != settings {
		return nil, false
	}
	rs, ok := r.Inputs[source]
	return rs, ok
}

func resultsPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "bextract_last_scan.json")
	}
	return filepath.Join(root, ".bextract_last_scan.json")
}

// SaveResults replaces the last-results file under root.
func SaveResults(root string, r ScanResults) error {
	r.Saved = time.Now().UTC()
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return os.WriteFile(resultsPath(root), b, 0o644)
}

// LoadResults reads the last-results file under root.
func LoadResults(root string) (ScanResults, error) {
	b, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return ScanResults{}, err
	}
	var r ScanResults
	if err := json.Unmarshal(b, &r); err != nil {
		return ScanResults{}, fmt.Errorf("decode results: %w", err)
	}
	if r.Inputs == nil {
		r.Inputs = map[string][]bulk.Record{}
	}
	return r, nil
}
