package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "bextract.yaml", "engine: native\nlibrary: /opt/be/libbulk_extractor.so\nthreads: 4\nmax_bytes: 123\nhistograms: true\nrecorders: email,url\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.GetEngine() != EngineNative {
		t.Fatalf("expected engine=native, got %q", cfg.GetEngine())
	}
	if cfg.GetLibrary() != "/opt/be/libbulk_extractor.so" {
		t.Fatalf("unexpected library %q", cfg.GetLibrary())
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	if cfg.Histograms == nil || !*cfg.Histograms {
		t.Fatalf("expected histograms=true")
	}
	if cfg.Recorders == nil || *cfg.Recorders != "email,url" {
		t.Fatalf("expected recorders=email,url, got %#v", cfg.Recorders)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"engine.yml":  "engine: gpu\n",
		"format.yml":  "format: xml\n",
		"threads.yml": "threads: -1\n",
		"syntax.yml":  "threads: [\n",
		"budget.yml":  "archive_time_budget: soon\n",
	} {
		p := writeTemp(t, dir, name, body)
		if _, err := LoadFile(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDefaults(t *testing.T) {
	var cfg FileConfig
	if cfg.GetEngine() != EngineBuiltin {
		t.Fatalf("expected builtin default, got %q", cfg.GetEngine())
	}
	if cfg.GetLibrary() != DefaultLibrary {
		t.Fatalf("expected default library, got %q", cfg.GetLibrary())
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "bextract.yaml", "threads: 1\n")
	writeTemp(t, dir, ".bextract.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .bextract.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "bextract")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(cfgDir, "config.yml")
	if err := os.WriteFile(p, []byte("threads: 9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestMerge_LocalOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	g, err := LoadFile(writeTemp(t, dir, "g.yml", "threads: 2\nformat: table\ncarve: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	l, err := LoadFile(writeTemp(t, dir, "l.yml", "threads: 8\n"))
	if err != nil {
		t.Fatal(err)
	}
	m := Merge(g, l)
	if *m.Threads != 8 {
		t.Fatalf("expected local threads to win, got %d", *m.Threads)
	}
	if m.Format == nil || *m.Format != "table" {
		t.Fatalf("expected global format to survive merge")
	}
	if m.Carve == nil || !*m.Carve {
		t.Fatalf("expected global carve to survive merge")
	}
}

func TestArchiveSettings(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "a.yml", "archives: true\nmax_depth: 3\nmax_entries: 50\narchive_time_budget: 2s\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Archives == nil || !*cfg.Archives {
		t.Fatalf("expected archives=true")
	}
	if cfg.MaxDepth == nil || *cfg.MaxDepth != 3 || cfg.MaxEntries == nil || *cfg.MaxEntries != 50 {
		t.Fatalf("unexpected limits: %#v %#v", cfg.MaxDepth, cfg.MaxEntries)
	}
	if got := cfg.GetArchiveTimeBudget(); got.Seconds() != 2 {
		t.Fatalf("expected 2s budget, got %v", got)
	}
	if (FileConfig{}).GetArchiveTimeBudget() != 0 {
		t.Fatalf("expected zero budget when unset")
	}
}
