package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Record is the JSON shape of one event. Feature and context bytes are
// encoded as strings when they are valid UTF-8 text, base64 otherwise.
type Record struct {
	Kind     string `json:"kind"`
	Recorder string `json:"recorder"`
	Position string `json:"position"`
	Source   string `json:"source,omitempty"`
	Feature  Bytes  `json:"feature,omitempty"`
	Context  Bytes  `json:"context,omitempty"`
	Count    uint32 `json:"count,omitempty"`
	Filename string `json:"filename,omitempty"`
	Length   int    `json:"length,omitempty"`
}

// ToRecord flattens an event, copying its bytes so the record outlives the
// callback. Carve payloads are summarized by length only.
func ToRecord(source string, e Event) Record {
	r := Record{Kind: e.Kind().String(), Source: source}
	switch ev := e.(type) {
	case FeatureEvent:
		r.Recorder, r.Position = ev.Recorder, ev.Position
		r.Feature, r.Context = Bytes(bytes.Clone(ev.Feature)), Bytes(bytes.Clone(ev.Context))
	case HistogramEvent:
		r.Recorder, r.Position = ev.Recorder, ev.Position
		r.Feature, r.Count = Bytes(bytes.Clone(ev.Feature)), ev.Count
	case CarveEvent:
		r.Recorder, r.Position = ev.Recorder, ev.Position
		r.Filename, r.Length = ev.Filename, len(ev.Data)
	}
	return r
}

// MarshalRecords writes records as newline-delimited JSON.
func MarshalRecords(w io.Writer, rs []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range rs {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

// UnmarshalRecords decodes newline-delimited JSON records.
func UnmarshalRecords(r io.Reader) ([]Record, error) {
	var out []Record
	dec := json.NewDecoder(r)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
