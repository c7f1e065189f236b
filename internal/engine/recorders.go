package engine

import (
	"bytes"
	"regexp"
	"sort"
)

// Recorder finds one kind of feature. Validate, when set, rejects matches
// the pattern alone cannot rule out.
type Recorder struct {
	Name     string
	Pattern  *regexp.Regexp
	Validate func([]byte) bool
}

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9._%+-]*@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)*\.[A-Za-z]{2,}`)
	// NANP numbers: 617-555-1212, 617.555.1212, (617) 555-1212
	reTelephone = regexp.MustCompile(`(?:\([2-9][0-9]{2}\) ?|\b[2-9][0-9]{2}[-.])[0-9]{3}[-.][0-9]{4}\b`)
	reURL       = regexp.MustCompile(`\bhttps?://[A-Za-z0-9.-]+(?::[0-9]{1,5})?(?:/[^\s"'<>\x00]*)?`)
)

var all = []Recorder{
	{Name: "email", Pattern: reEmail, Validate: validEmail},
	{Name: "telephone", Pattern: reTelephone},
	{Name: "url", Pattern: reURL},
}

// RecorderNames lists the builtin feature recorders.
func RecorderNames() []string {
	out := make([]string, 0, len(all))
	for _, r := range all {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

// CarverNames lists the builtin carving recorders.
func CarverNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range carvers {
		if !seen[c.name] {
			seen[c.name] = true
			out = append(out, c.name)
		}
	}
	sort.Strings(out)
	return out
}

func selectRecorders(names []string) []Recorder {
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Recorder
	for _, r := range all {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// validEmail rejects local parts the pattern still admits, e.g. "a..b@x.io"
// or "a.@x.io".
func validEmail(b []byte) bool {
	at := bytes.IndexByte(b, '@')
	if at <= 0 {
		return false
	}
	local := b[:at]
	return !bytes.HasSuffix(local, []byte(".")) && !bytes.Contains(local, []byte(".."))
}
