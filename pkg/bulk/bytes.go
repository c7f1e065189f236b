package bulk

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const b64Prefix = "base64:"

// Bytes marshals as a plain JSON string when it is printable UTF-8 and as
// "base64:..." otherwise, so binary context survives a round trip.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	if utf8.Valid(b) && !containsControl(b) && !strings.HasPrefix(string(b), b64Prefix) {
		return json.Marshal(string(b))
	}
	return json.Marshal(b64Prefix + base64.StdEncoding.EncodeToString(b))
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if rest, ok := strings.CutPrefix(s, b64Prefix); ok {
		raw, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return err
		}
		*b = raw
		return nil
	}
	*b = []byte(s)
	return nil
}

func containsControl(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}
