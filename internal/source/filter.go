package source

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Filter selects which files a walk submits.
type Filter struct {
	// Include and Exclude are comma-separated doublestar globs.
	Include         string
	Exclude         string
	MaxBytes        int64
	DefaultExcludes bool
	// Archives, when set, expands archive files into their members.
	Archives *Limits
}

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
}

// Files bextract itself writes next to the scanned tree.
var defaultExcludeFiles = map[string]bool{
	".bextractcache.json":      true,
	".bextract_last_scan.json": true,
	".bextract_audit.jsonl":    true,
}

// Allowed returns true if relPath passes the include/exclude globs. Include
// globs, if provided, act as a positive filter; exclude globs are subtracted
// last. Globs match either the full slash path or its base name.
func (f Filter) Allowed(relPath string) bool {
	rp := filepath.ToSlash(relPath)
	includes := parseGlobsList(f.Include)
	excludes := parseGlobsList(f.Exclude)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func (f Filter) tooBig(n int64) bool {
	return f.MaxBytes > 0 && n > f.MaxBytes
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
