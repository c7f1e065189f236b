// Package audit keeps an append-only JSONL history of scans. Records hold
// counts and locations only; feature values never reach the log.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/redactyl/bextract/pkg/bulk"
)

type ScanRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	ScanID         string         `json:"scan_id"`
	Root           string         `json:"root"`
	Engine         string         `json:"engine"`
	TotalEvents    int            `json:"total_events"`
	NewEvents      int            `json:"new_events"`
	BaselinedCount int            `json:"baselined_count"`
	KindCounts     map[string]int `json:"kind_counts"`
	InputsScanned  int            `json:"inputs_scanned"`
	CachedInputs   int            `json:"cached_inputs"`
	FailedInputs   int            `json:"failed_inputs"`
	BytesScanned   int64          `json:"bytes_scanned"`
	Duration       string         `json:"duration"`
	BaselineFile   string         `json:"baseline_file,omitempty"`
	TopEvents      []EventSummary `json:"top_events,omitempty"`
	RecorderCounts map[string]int `json:"recorder_counts,omitempty"`
}

type EventSummary struct {
	Source   string `json:"source"`
	Kind     string `json:"kind"`
	Recorder string `json:"recorder"`
	Position string `json:"position"`
}

// Stats are the scan totals a record is built from.
type Stats struct {
	Inputs   int
	Cached   int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".bextract_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "bextract_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Undecodable lines are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = uuid.NewString()
	}

	// Owner-only: the log lists where features were found.
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

func CreateScanRecord(root, engine string, all, fresh []bulk.Record, st Stats, baselineFile string) ScanRecord {
	kindCounts := make(map[string]int)
	recorderCounts := make(map[string]int)
	for _, r := range all {
		kindCounts[r.Kind]++
		recorderCounts[r.Recorder]++
	}

	top := make([]EventSummary, 0, 10)
	for i, r := range fresh {
		if i >= 10 {
			break
		}
		top = append(top, EventSummary{Source: r.Source, Kind: r.Kind, Recorder: r.Recorder, Position: r.Position})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Root:           root,
		Engine:         engine,
		TotalEvents:    len(all),
		NewEvents:      len(fresh),
		BaselinedCount: len(all) - len(fresh),
		KindCounts:     kindCounts,
		RecorderCounts: recorderCounts,
		InputsScanned:  st.Inputs,
		CachedInputs:   st.Cached,
		FailedInputs:   st.Failed,
		BytesScanned:   st.Bytes,
		Duration:       st.Duration.String(),
		BaselineFile:   baselineFile,
		TopEvents:      top,
	}
}
