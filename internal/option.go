package internal

import (
	"io"

	"github.com/starford/notepdf/internal/convert"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	converter convert.Converter
	logOutput io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConverter replaces the supernote-tool renderer. The converter is still
// wrapped with the configured timeout.
func WithConverter(c convert.Converter) Option {
	return func(a *application) {
		a.converter = c
	}
}

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
