package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/starford/notepdf/internal"
)

func parse(t *testing.T, args ...string) (*internal.Config, error) {
	t.Helper()
	cmd := newCommand()
	var cfg *internal.Config
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		var err error
		cfg, err = buildConfig(c)
		return err
	}
	err := cmd.Run(context.Background(), append([]string{"notepdf"}, args...))
	return cfg, err
}

func TestBuildConfig_Defaults(t *testing.T) {
	cfg, err := parse(t, "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("explicit missing config should fail, got %+v", cfg)
	}

	t.Chdir(t.TempDir())
	cfg, err = parse(t)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Source.Path != "/volume1/Synology/Supernote/Note" {
		t.Errorf("source = %q", cfg.Source.Path)
	}
	if !strings.HasSuffix(cfg.Cache.Path, ".cache") {
		t.Errorf("cache path = %q, want derived from executable", cfg.Cache.Path)
	}
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	yaml := "source:\n  path: /from/file\ndest:\n  path: /from/file/out\nwatch:\n  debounce: 3s\n"
	if err := os.WriteFile(cfgFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t,
		"-c", cfgFile,
		"--dest", "/flag/out",
		"--cachepath", "/flag/x.cache",
		"--cache-backend", "sqlite",
		"--watch",
		"--verify-dest",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Source.Path != "/from/file" {
		t.Errorf("source = %q, want value from file", cfg.Source.Path)
	}
	if cfg.Dest.Path != "/flag/out" || cfg.Cache.Path != "/flag/x.cache" || cfg.Cache.Backend != "sqlite" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if !cfg.Watch.Enabled || !cfg.Dest.Verify {
		t.Error("bool flags not applied")
	}
	if cfg.Watch.Debounce.Seconds() != 3 {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
}

func TestBuildConfig_BadLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := parse(t, "--log-level", "loud"); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestDefaultCachePath(t *testing.T) {
	exe, _ := os.Executable()
	got := defaultCachePath()
	if filepath.Dir(got) != filepath.Dir(exe) || filepath.Ext(got) != ".cache" {
		t.Errorf("defaultCachePath = %q (exe %q)", got, exe)
	}
}
