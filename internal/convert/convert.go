// Package convert renders note files to PDF through an external renderer and
// maps source note paths onto the destination tree.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/notepdf/internal/apperr"
)

// PDFExt is the extension of rendered documents.
const PDFExt = ".pdf"

var pdfMagic = []byte("%PDF-")

// Converter renders a note into a complete PDF document.
//
// Implementations return apperr.ErrDecode for notes the renderer rejects and
// apperr.ErrEmptyResult when the note has nothing to render.
type Converter interface {
	Convert(ctx context.Context, notePath string) ([]byte, error)
}

// Func adapts a function to the Converter interface.
type Func func(ctx context.Context, notePath string) ([]byte, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, notePath string) ([]byte, error) {
	return f(ctx, notePath)
}

type result struct {
	data []byte
	err  error
}

type bounded struct {
	next    Converter
	timeout time.Duration
}

// Bounded wraps c so that every call:
//   - returns within timeout (0 disables the limit) with apperr.ErrTimeout,
//   - turns panics and unclassified errors into apperr.ErrDecode,
//   - reports zero-length output as apperr.ErrEmptyResult,
//   - rejects output without a PDF header as apperr.ErrDecode.
func Bounded(c Converter, timeout time.Duration) Converter {
	return &bounded{next: c, timeout: timeout}
}

func (b *bounded) Convert(ctx context.Context, notePath string) ([]byte, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("convert: %s: %w: panic: %v", notePath, apperr.ErrDecode, r)}
			}
		}()
		data, err := b.next.Convert(ctx, notePath)
		done <- result{data: data, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		// The renderer ignored cancellation; abandon it.
		res = result{err: ctx.Err()}
	}

	if res.err != nil {
		return nil, classify(ctx, notePath, res.err)
	}
	if len(res.data) == 0 {
		return nil, fmt.Errorf("convert: %s: %w", notePath, apperr.ErrEmptyResult)
	}
	if !bytes.HasPrefix(res.data, pdfMagic) {
		return nil, fmt.Errorf("convert: %s: %w: output is not a PDF", notePath, apperr.ErrDecode)
	}
	return res.data, nil
}

func classify(ctx context.Context, notePath string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrTimeout),
		errors.Is(err, apperr.ErrDecode),
		errors.Is(err, apperr.ErrEmptyResult):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("convert: %s: %w", notePath, apperr.ErrTimeout)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("convert: %s: %w: %w", notePath, apperr.ErrDecode, err)
	}
}

// PDFPath swaps the trailing extension of rel for .pdf.
func PDFPath(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + PDFExt
}

// DestPath maps <sourceRoot>/a/b/c.note to <destRoot>/a/b/c.pdf. Only the
// leading root and the trailing extension change; notePath must lie under
// sourceRoot.
func DestPath(sourceRoot, destRoot, notePath string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, notePath)
	if err != nil {
		return "", fmt.Errorf("convert: map %s: %w", notePath, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("convert: %s is not under %s", notePath, sourceRoot)
	}
	return filepath.Join(destRoot, PDFPath(rel)), nil
}
