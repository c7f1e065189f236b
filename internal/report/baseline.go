package report

import (
	"encoding/json"
	"os"

	"github.com/redactyl/bextract/pkg/bulk"
)

// Baseline is a set of already reviewed features keyed by source, recorder
// and value.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline returns an empty baseline alongside the read error when the
// file is missing, so callers may ignore os.IsNotExist.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, err
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, rs []bulk.Record) error {
	b := Baseline{Items: map[string]bool{}}
	for _, r := range rs {
		b.Items[key(r)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNew drops records present in the baseline.
func FilterNew(rs []bulk.Record, base Baseline) []bulk.Record {
	var out []bulk.Record
	for _, r := range rs {
		if !base.Items[key(r)] {
			out = append(out, r)
		}
	}
	return out
}

func key(r bulk.Record) string {
	v := string(r.Feature)
	if r.Kind == "carve" {
		v = r.Filename
	}
	return r.Source + "|" + r.Kind + "|" + r.Recorder + "|" + v
}
