package report

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/redactyl/bextract/pkg/bulk"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt     `json:"artifactLocation"`
	Region           *sarifRegion `json:"region,omitempty"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	ByteOffset int64 `json:"byteOffset"`
}

func kindToLevel(k string) string {
	if k == "carve" {
		return "warning"
	}
	return "note"
}

// WriteSARIF emits feature and carve records as SARIF 2.1.0 results.
// Histograms are aggregates without a location and are left out.
func WriteSARIF(w io.Writer, rs []bulk.Record, version string) error {
	Sort(rs)
	run := sarifRun{Tool: sarifTool{Driver: sarifDriver{Name: "bextract", Version: version}}}
	run.Results = []sarifResult{}
	for _, r := range rs {
		if r.Kind == "histogram" {
			continue
		}
		phys := sarifPhys{ArtifactLocation: sarifArt{URI: r.Source}}
		if off, err := strconv.ParseInt(r.Position, 10, 64); err == nil {
			phys.Region = &sarifRegion{ByteOffset: off}
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    r.Recorder,
			Level:     kindToLevel(r.Kind),
			Message:   sarifMessage{Text: value(r)},
			Locations: []sarifLoc{{PhysicalLocation: phys}},
		})
	}
	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
