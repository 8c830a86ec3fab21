package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"stickerd/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_root = %q\nlog_dir = %q\n", root, filepath.Join(root, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeSwatchFile(t *testing.T, dir, name string, fill color.NRGBA) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, testsupport.PNGSwatch(t, 512, 512, fill))
	return path
}

func TestPackLifecycle(t *testing.T) {
	cfgPath := writeTestConfig(t)
	images := t.TempDir()
	tray := writeSwatchFile(t, images, "tray.png", color.NRGBA{R: 30, G: 90, B: 200, A: 255})

	out, err := runCommand(t, "--config", cfgPath, "pack", "create",
		"--name", "Lifecycle", "--publisher", "Tester", "--tray", tray)
	if err != nil {
		t.Fatalf("pack create: %v\n%s", err, out)
	}
	identifier := strings.TrimSpace(out)
	if !strings.HasPrefix(identifier, "pack_") {
		t.Fatalf("unexpected identifier output %q", out)
	}

	fills := []color.NRGBA{
		{R: 220, G: 40, B: 40, A: 255},
		{R: 40, G: 180, B: 60, A: 255},
		{R: 230, G: 200, B: 30, A: 255},
	}
	for i, fill := range fills {
		src := writeSwatchFile(t, images, fmt.Sprintf("src_%d.png", i), fill)
		out, err = runCommand(t, "--config", cfgPath, "pack", "add-sticker",
			identifier, src, "--emoji", "😀", "--accessibility", "A colored square")
		if err != nil {
			t.Fatalf("add-sticker: %v\n%s", err, out)
		}
	}

	out, err = runCommand(t, "--config", cfgPath, "pack", "list", "--json")
	if err != nil {
		t.Fatalf("pack list: %v\n%s", err, out)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0]["sticker_pack_identifier"] != identifier {
		t.Fatalf("unexpected list output %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "pack", "validate", identifier)
	if err != nil {
		t.Fatalf("pack validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK") {
		t.Fatalf("expected OK, got %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "pack", "show", identifier)
	if err != nil {
		t.Fatalf("pack show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Lifecycle") || !strings.Contains(out, "sticker_1.webp") {
		t.Fatalf("unexpected show output %s", out)
	}
	if !strings.Contains(out, "Total sticker bytes") || strings.Contains(out, "Total sticker bytes: 0 B") {
		t.Fatalf("expected derived sticker sizes in show output, got %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "pack", "delete-sticker", identifier, "sticker_2.webp")
	if err != nil {
		t.Fatalf("delete-sticker: %v\n%s", err, out)
	}

	// Two stickers left; validation now fails the count rule.
	out, err = runCommand(t, "--config", cfgPath, "pack", "validate", identifier)
	if err == nil {
		t.Fatalf("expected validation failure after deletion, got:\n%s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "pack", "delete", identifier)
	if err != nil {
		t.Fatalf("pack delete: %v\n%s", err, out)
	}
	out, err = runCommand(t, "--config", cfgPath, "pack", "list")
	if err != nil {
		t.Fatalf("pack list after delete: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No packs found.") {
		t.Fatalf("expected empty store, got %s", out)
	}
}

func TestValidateRequiresTargetOrAll(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "pack", "validate"); err == nil {
		t.Fatal("expected an error without identifier or --all")
	}
}

func TestSampleCommandInstallsValidPack(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "sample")
	if err != nil {
		t.Fatalf("sample: %v\n%s", err, out)
	}
	identifier := strings.TrimSpace(out)

	out, err = runCommand(t, "--config", cfgPath, "pack", "validate", identifier)
	if err != nil {
		t.Fatalf("validate sample: %v\n%s", err, out)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "data_root") || !strings.Contains(out, "[paths]") {
		t.Fatalf("unexpected config show output:\n%s", out)
	}
}
