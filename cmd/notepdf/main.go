package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notepdf/internal"
	pkgconfig "github.com/starford/notepdf/pkg/config"
)

// defaultCachePath places the cache next to the binary: /usr/local/bin/notepdf
// becomes /usr/local/bin/notepdf.cache.
func defaultCachePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "notepdf.cache"
	}
	return strings.TrimSuffix(exe, filepath.Ext(exe)) + ".cache"
}

// buildConfig layers defaults, the optional config file and command-line
// flags, in that order.
func buildConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	cfg.Cache.Path = defaultCachePath()

	configPath := cmd.String("config")
	loaded, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if cmd.IsSet("source") {
		cfg.Source.Path = cmd.String("source")
	}
	if cmd.IsSet("dest") {
		cfg.Dest.Path = cmd.String("dest")
	}
	if cmd.IsSet("cachepath") {
		cfg.Cache.Path = cmd.String("cachepath")
	}
	if cmd.IsSet("cache-backend") {
		cfg.Cache.Backend = cmd.String("cache-backend")
	}
	if cmd.IsSet("watch") {
		cfg.Watch.Enabled = cmd.Bool("watch")
	}
	if cmd.IsSet("verify-dest") {
		cfg.Dest.Verify = cmd.Bool("verify-dest")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "notepdf",
		Usage:  "Create PDFs from Supernote notes, skipping notes that have not changed",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("NOTEPDF_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Source directory",
				Sources: cli.EnvVars("NOTEPDF_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "dest",
				Usage:   "Destination directory",
				Sources: cli.EnvVars("NOTEPDF_DEST"),
			},
			&cli.StringFlag{
				Name:        "cachepath",
				Usage:       "Filepath to save note hashes",
				DefaultText: "<executable>.cache",
				Sources:     cli.EnvVars("NOTEPDF_CACHE"),
			},
			&cli.StringFlag{
				Name:  "cache-backend",
				Usage: "Cache backend: json or sqlite",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep running and convert notes as they change",
			},
			&cli.BoolFlag{
				Name:  "verify-dest",
				Usage: "Reconvert unchanged notes whose PDF is missing",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
