package convert

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/notepdf/internal/apperr"
)

var samplePDF = []byte("%PDF-1.4\n% three pages\n%%EOF\n")

func TestDestPath(t *testing.T) {
	cases := []struct {
		source, dest, note, want string
	}{
		{"/src", "/out", "/src/a/b/c.note", "/out/a/b/c.pdf"},
		{"/volume1/Supernote/Note", "/tmp/pdf", "/volume1/Supernote/Note/x.note", "/tmp/pdf/x.pdf"},
		// Only the trailing extension changes.
		{"/src", "/out", "/src/my.note.d/meeting.note", "/out/my.note.d/meeting.pdf"},
		// The source root string appearing twice is only replaced once.
		{"/n", "/d", "/n/n/x.note", "/d/n/x.pdf"},
	}
	for _, tc := range cases {
		got, err := DestPath(filepath.FromSlash(tc.source), filepath.FromSlash(tc.dest), filepath.FromSlash(tc.note))
		if err != nil {
			t.Errorf("DestPath(%q): %v", tc.note, err)
			continue
		}
		if got != filepath.FromSlash(tc.want) {
			t.Errorf("DestPath(%q) = %q, want %q", tc.note, got, tc.want)
		}
	}
}

func TestDestPath_OutsideSource(t *testing.T) {
	for _, note := range []string{"/elsewhere/x.note", "/src", "/srcx/y.note"} {
		if _, err := DestPath("/src", "/out", filepath.FromSlash(note)); err == nil {
			t.Errorf("DestPath(%q) should fail", note)
		}
	}
}

func TestPDFPath(t *testing.T) {
	if got := PDFPath(filepath.Join("a", "b.note")); got != filepath.Join("a", "b.pdf") {
		t.Errorf("PDFPath = %q", got)
	}
}

func TestBounded_PassThrough(t *testing.T) {
	c := Bounded(Func(func(context.Context, string) ([]byte, error) {
		return samplePDF, nil
	}), time.Second)
	data, err := c.Convert(context.Background(), "x.note")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if string(data) != string(samplePDF) {
		t.Errorf("data = %q", data)
	}
}

func TestBounded_Timeout_RespectsContext(t *testing.T) {
	c := Bounded(Func(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond)
	_, err := c.Convert(context.Background(), "slow.note")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, apperr.ErrDecode) {
		t.Error("timeout should also classify as decode failure")
	}
}

func TestBounded_Timeout_IgnoresContext(t *testing.T) {
	c := Bounded(Func(func(context.Context, string) ([]byte, error) {
		time.Sleep(500 * time.Millisecond)
		return samplePDF, nil
	}), 20*time.Millisecond)
	start := time.Now()
	_, err := c.Convert(context.Background(), "stuck.note")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Error("Bounded did not return at the deadline")
	}
}

func TestBounded_Panic(t *testing.T) {
	c := Bounded(Func(func(context.Context, string) ([]byte, error) {
		panic("bad block")
	}), time.Second)
	_, err := c.Convert(context.Background(), "x.note")
	if !errors.Is(err, apperr.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestBounded_Classification(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		err  error
		want error
	}{
		{"unclassified", nil, errors.New("boom"), apperr.ErrDecode},
		{"decode kept", nil, apperr.ErrDecode, apperr.ErrDecode},
		{"empty error", nil, apperr.ErrEmptyResult, apperr.ErrEmptyResult},
		{"nil data", nil, nil, apperr.ErrEmptyResult},
		{"not a pdf", []byte("<html>"), nil, apperr.ErrDecode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Bounded(Func(func(context.Context, string) ([]byte, error) {
				return tc.data, tc.err
			}), 0)
			_, err := c.Convert(context.Background(), "x.note")
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBounded_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := Bounded(Func(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), time.Second)
	_, err := c.Convert(ctx, "x.note")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, apperr.ErrDecode) {
		t.Error("cancellation should not be reported as a decode failure")
	}
}
