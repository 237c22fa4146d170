package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := load(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg != Default() {
			t.Fatalf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "mode = \"pretty\"\nextended-json = true\nload-batch = 250\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}

		cfg, err := load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Mode != "pretty" || !cfg.ExtendedJSON || cfg.LoadBatch != 250 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("nonpositive batch falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("load-batch = -1\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		cfg, err := load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.LoadBatch != Default().LoadBatch {
			t.Fatalf("expected default batch, got %d", cfg.LoadBatch)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("mode = [broken\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := load(path); err == nil {
			t.Fatalf("expected error for malformed config")
		}
	})
}
