package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/notepdf/internal/models"
)

// lockedRecorder guards the recorder body, which the handler writes while
// the test reads.
type lockedRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (l *lockedRecorder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ResponseRecorder.Write(p)
}

func (l *lockedRecorder) body() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Body.String()
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "sync.started", Data: map[string]string{"source": "/src"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: sync.started") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"source":"/src"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishConversion_ProgressThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishConversion(models.ConversionEvent{Path: "/src/a.note", Outcome: models.OutcomeConverted})
	b.PublishConversion(models.ConversionEvent{Path: "/src/b.note", Outcome: models.OutcomeFailed, Error: "decode failed"})
	b.PublishConversion(models.ConversionEvent{Path: "/src/c.note", Outcome: models.OutcomeSkipped})

	time.Sleep(50 * time.Millisecond)
	var progress, converted, failed, skipped int
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: sync.progress"):
				progress++
				if !strings.Contains(s, `"converted":1`) {
					t.Errorf("progress payload = %q", s)
				}
			case strings.Contains(s, "event: note.converted"):
				converted++
			case strings.Contains(s, "event: note.failed"):
				failed++
			case strings.Contains(s, "event: note.skipped"):
				skipped++
			}
		default:
			break loop
		}
	}

	if converted != 1 || failed != 1 {
		t.Errorf("converted = %d, failed = %d, want 1 each", converted, failed)
	}
	if skipped != 0 {
		t.Errorf("skipped events should not be broadcast, got %d", skipped)
	}
	if progress != 1 {
		t.Errorf("progress events = %d, want 1 (throttled)", progress)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &lockedRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishConversion(models.ConversionEvent{Path: "/src/x.note", PDFPath: "/out/x.pdf", Outcome: models.OutcomeConverted})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: note.converted") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, `"pdf_path":"/out/x.pdf"`) {
		t.Errorf("handler output missing payload: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "note.converted"})
	b.PublishConversion(models.ConversionEvent{Path: "x.note", Outcome: models.OutcomeConverted})
}
