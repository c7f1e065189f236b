package bextract

import (
	"fmt"
	"strings"

	"github.com/redactyl/bextract/internal/config"
	"github.com/redactyl/bextract/pkg/bulk"
)

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func ptr[T any](v T) *T { return &v }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// engineOptions builds builtin engine options from fc. Histograms and carving
// default to on.
func engineOptions(fc config.FileConfig) (bulk.EngineOptions, error) {
	names := splitList(valueOr(fc.Recorders, ""))
	known := map[string]bool{}
	for _, n := range bulk.RecorderNames() {
		known[n] = true
	}
	for _, n := range names {
		if !known[n] {
			return bulk.EngineOptions{}, fmt.Errorf("unknown recorder %q (see 'bextract recorders')", n)
		}
	}
	return bulk.EngineOptions{
		Recorders:     names,
		Histograms:    valueOr(fc.Histograms, true),
		Carve:         valueOr(fc.Carve, true),
		ContextWindow: valueOr(fc.ContextWindow, 0),
	}, nil
}

// openLibrary returns the engine fc selects.
func openLibrary(fc config.FileConfig) (bulk.Library, error) {
	if fc.GetEngine() == config.EngineNative {
		lib, err := bulk.LoadNative(fc.GetLibrary())
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", fc.GetLibrary(), err)
		}
		return lib, nil
	}
	opts, err := engineOptions(fc)
	if err != nil {
		return nil, err
	}
	return bulk.Builtin(opts), nil
}

// fingerprint identifies the engine settings a cached result depends on.
func fingerprint(fc config.FileConfig) string {
	engine := fc.GetEngine()
	if engine == config.EngineNative {
		engine += ":" + fc.GetLibrary()
	}
	return fmt.Sprintf("%s|%s|%t|%t|%d",
		engine,
		valueOr(fc.Recorders, ""),
		valueOr(fc.Histograms, true),
		valueOr(fc.Carve, true),
		valueOr(fc.ContextWindow, 0))
}
