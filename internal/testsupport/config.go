package testsupport

import (
	"path/filepath"
	"testing"

	"stickerd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataRoot = base
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStoreLinks sets the app-store links stamped into saved manifests.
func WithStoreLinks(android, ios string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.AndroidPlayStoreLink = android
		cfg.Store.IOSAppStoreLink = ios
	}
}

// WithAPIBind overrides the query API bind address.
func WithAPIBind(bind string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIBind = bind
	}
}
