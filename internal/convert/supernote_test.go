package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/notepdf/internal/apperr"
)

// fakeExec records invocations and simulates supernote-tool by writing
// output to the last argument.
type fakeExec struct {
	missing bool
	calls   [][]string
	output  []byte // nil means write nothing
	stderr  string
	err     error
	block   bool
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/local/bin/" + file, nil
}

func (f *fakeExec) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		_, _ = io.WriteString(stderr, f.stderr)
		return f.err
	}
	if f.output != nil {
		return os.WriteFile(args[len(args)-1], f.output, 0o644)
	}
	return nil
}

func newTestTool(t *testing.T, ex *fakeExec, opts SupernoteOptions) *SupernoteTool {
	t.Helper()
	s, err := newSupernoteTool(opts, ex)
	if err != nil {
		t.Fatalf("newSupernoteTool: %v", err)
	}
	return s
}

func TestNewSupernoteTool_Missing(t *testing.T) {
	if _, err := newSupernoteTool(SupernoteOptions{}, &fakeExec{missing: true}); err == nil {
		t.Fatal("expected error when renderer is not on PATH")
	}
}

func TestSupernoteTool_Args(t *testing.T) {
	s := newTestTool(t, &fakeExec{}, SupernoteOptions{EnableLink: true})
	got := strings.Join(s.Args("in.note", "out.pdf"), " ")
	want := "convert -t pdf -a --policy strict --pdf-type original --enable-link in.note out.pdf"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}

	s = newTestTool(t, &fakeExec{}, SupernoteOptions{Policy: PolicyLoose, PDFType: PDFTypeVector, ExtraArgs: []string{"-b"}})
	got = strings.Join(s.Args("in.note", "out.pdf"), " ")
	want = "convert -t pdf -a --policy loose --pdf-type vector -b in.note out.pdf"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestSupernoteTool_Convert(t *testing.T) {
	ex := &fakeExec{output: samplePDF}
	s := newTestTool(t, ex, SupernoteOptions{})
	data, err := s.Convert(context.Background(), "/src/x.note")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if string(data) != string(samplePDF) {
		t.Errorf("data = %q", data)
	}
	if len(ex.calls) != 1 || ex.calls[0][0] != "/usr/local/bin/supernote-tool" {
		t.Errorf("calls = %v", ex.calls)
	}
	// The scratch directory is removed afterwards.
	out := ex.calls[0][len(ex.calls[0])-1]
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch output %s still present", out)
	}
}

func TestSupernoteTool_Empty(t *testing.T) {
	for name, ex := range map[string]*fakeExec{
		"no file":    {},
		"zero bytes": {output: []byte{}},
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestTool(t, ex, SupernoteOptions{})
			_, err := s.Convert(context.Background(), "/src/blank.note")
			if !errors.Is(err, apperr.ErrEmptyResult) {
				t.Errorf("err = %v, want ErrEmptyResult", err)
			}
		})
	}
}

func TestSupernoteTool_DecodeError(t *testing.T) {
	ex := &fakeExec{err: errors.New("exit status 1"), stderr: "UnsupportedFileFormat\n"}
	s := newTestTool(t, ex, SupernoteOptions{})
	_, err := s.Convert(context.Background(), "/src/bad.note")
	if !errors.Is(err, apperr.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if !strings.Contains(err.Error(), "UnsupportedFileFormat") {
		t.Errorf("stderr missing from error: %v", err)
	}
}

func TestSupernoteTool_Timeout(t *testing.T) {
	ex := &fakeExec{block: true}
	s := newTestTool(t, ex, SupernoteOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Convert(ctx, "/src/slow.note")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
