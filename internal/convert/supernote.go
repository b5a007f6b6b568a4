package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/notepdf/internal/apperr"
)

// Renderer defaults, matching supernote-tool's own.
const (
	DefaultCommand = "supernote-tool"
	PolicyStrict   = "strict"
	PolicyLoose    = "loose"
	PDFTypeRaster  = "original"
	PDFTypeVector  = "vector"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	return cmd.Run()
}

// SupernoteOptions configures the supernote-tool invocation.
type SupernoteOptions struct {
	Command    string
	Policy     string
	PDFType    string
	EnableLink bool
	ExtraArgs  []string
}

// SupernoteTool renders notes by running `supernote-tool convert` into a
// scratch directory and reading the PDF back.
type SupernoteTool struct {
	bin  string
	opts SupernoteOptions
	exec executor
}

// NewSupernoteTool resolves the renderer binary on PATH and returns a
// converter for it.
func NewSupernoteTool(opts SupernoteOptions) (*SupernoteTool, error) {
	return newSupernoteTool(opts, osExecutor{})
}

func newSupernoteTool(opts SupernoteOptions, ex executor) (*SupernoteTool, error) {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	if opts.Policy == "" {
		opts.Policy = PolicyStrict
	}
	if opts.PDFType == "" {
		opts.PDFType = PDFTypeRaster
	}
	bin, err := ex.LookPath(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("convert: renderer %q not found: %w", opts.Command, err)
	}
	return &SupernoteTool{bin: bin, opts: opts, exec: ex}, nil
}

// Args returns the renderer arguments for converting in to out.
func (s *SupernoteTool) Args(in, out string) []string {
	args := []string{
		"convert",
		"-t", "pdf",
		"-a",
		"--policy", s.opts.Policy,
		"--pdf-type", s.opts.PDFType,
	}
	if s.opts.EnableLink {
		args = append(args, "--enable-link")
	}
	args = append(args, s.opts.ExtraArgs...)
	return append(args, in, out)
}

// Convert renders all pages of notePath and returns the PDF bytes.
func (s *SupernoteTool) Convert(ctx context.Context, notePath string) ([]byte, error) {
	tmp, err := os.MkdirTemp("", "notepdf-*")
	if err != nil {
		return nil, fmt.Errorf("convert: scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, "out"+PDFExt)
	var stderr bytes.Buffer
	if err := s.exec.Run(ctx, s.bin, s.Args(notePath, out), &stderr); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("convert: %s: %w", notePath, apperr.ErrTimeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("convert: %s: %w: %v: %s", notePath, apperr.ErrDecode, err, msg)
	}

	data, err := os.ReadFile(out)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, fmt.Errorf("convert: %s: %w", notePath, apperr.ErrEmptyResult)
	}
	if err != nil {
		return nil, fmt.Errorf("convert: read output for %s: %w", notePath, err)
	}
	return data, nil
}
