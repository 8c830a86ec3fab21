package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"stickerd/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "stickerd")
	if cfg.Paths.DataRoot != wantRoot {
		t.Fatalf("unexpected data root: got %q want %q", cfg.Paths.DataRoot, wantRoot)
	}
	if cfg.PacksRoot() != filepath.Join(wantRoot, "sticker_packs") {
		t.Fatalf("unexpected packs root: %q", cfg.PacksRoot())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7465" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Store.AndroidPlayStoreLink != "" || cfg.Store.IOSAppStoreLink != "" {
		t.Fatalf("expected empty store links by default: %+v", cfg.Store)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.PacksRoot(), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stickerd.toml")

	contents := `
[paths]
data_root = "` + filepath.Join(tempDir, "data") + `"

[store]
android_play_store_link = "https://play.google.com/store/apps/details?id=example"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataRoot != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data root: %q", cfg.Paths.DataRoot)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadDataRootFromEnv(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("STICKERD_DATA_ROOT", filepath.Join(tempDir, "env-root"))

	configPath := filepath.Join(tempDir, "stickerd.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\ndata_root = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataRoot != filepath.Join(tempDir, "env-root") {
		t.Fatalf("expected data root from env, got %q", cfg.Paths.DataRoot)
	}
}

func TestLoadRejectsBadStoreLink(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stickerd.toml")
	contents := "[store]\nandroid_play_store_link = \"not a url\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for malformed store link")
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config contents")
	}
}
