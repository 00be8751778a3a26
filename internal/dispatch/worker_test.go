package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/vendor"
)

// stubTransport records every send and can fail selected log IDs.
type stubTransport struct {
	mu      sync.Mutex
	sent    []vendor.Message
	failIDs map[string]bool
}

func (s *stubTransport) Send(ctx context.Context, msg vendor.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[msg.LogID] {
		return errors.New("vendor rejected message")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubTransport) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func logsOf(n int) []domain.CommunicationLog {
	out := make([]domain.CommunicationLog, 0, n)
	for i := 0; i < n; i++ {
		customerID := fmt.Sprintf("cust-%03d", i)
		out = append(out, domain.CommunicationLog{
			ID:         fmt.Sprintf("log-%03d", i),
			CampaignID: "camp-1",
			CustomerID: &customerID,
			Message:    "hello",
			Metadata:   map[string]any{"customerEmail": fmt.Sprintf("c%d@example.com", i)},
		})
	}
	return out
}

// sleepRecorder captures inter-batch pauses without actually sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
}

func TestDeliverBatchesWithPauses(t *testing.T) {
	transport := &stubTransport{}
	rec := &sleepRecorder{}

	w := NewWorker(transport, WorkerConfig{BatchSize: 50, Pause: time.Second})
	w.sleep = rec.sleep
	w.Start()
	defer w.Stop()

	job := Job{Campaign: domain.Campaign{ID: "camp-1", Message: "hello"}, Logs: logsOf(120)}
	w.deliver(job)

	if got := transport.sentCount(); got != 120 {
		t.Errorf("sent %d messages, want 120", got)
	}

	// Three batches (50, 50, 20) means exactly two inter-batch pauses.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.pauses) != 2 {
		t.Fatalf("recorded %d pauses, want 2", len(rec.pauses))
	}
	for i, p := range rec.pauses {
		if p != time.Second {
			t.Errorf("pause %d = %s, want 1s", i, p)
		}
	}
}

func TestDeliverSingleBatchNoPause(t *testing.T) {
	transport := &stubTransport{}
	rec := &sleepRecorder{}

	w := NewWorker(transport, WorkerConfig{BatchSize: 50, Pause: time.Second})
	w.sleep = rec.sleep
	w.Start()
	defer w.Stop()

	w.deliver(Job{Campaign: domain.Campaign{ID: "camp-1"}, Logs: logsOf(30)})

	if got := transport.sentCount(); got != 30 {
		t.Errorf("sent %d messages, want 30", got)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.pauses) != 0 {
		t.Errorf("recorded %d pauses, want 0 for a single batch", len(rec.pauses))
	}
}

func TestDeliverFailureIsolation(t *testing.T) {
	transport := &stubTransport{failIDs: map[string]bool{
		"log-003": true,
		"log-017": true,
	}}
	rec := &sleepRecorder{}

	w := NewWorker(transport, WorkerConfig{BatchSize: 50})
	w.sleep = rec.sleep
	w.Start()
	defer w.Stop()

	w.deliver(Job{Campaign: domain.Campaign{ID: "camp-1"}, Logs: logsOf(20)})

	if got := transport.sentCount(); got != 18 {
		t.Errorf("sent %d messages, want 18", got)
	}
	stats := w.Stats()
	if stats["total_sent"] != 18 {
		t.Errorf("total_sent = %d, want 18", stats["total_sent"])
	}
	if stats["total_failed"] != 2 {
		t.Errorf("total_failed = %d, want 2", stats["total_failed"])
	}
}

func TestSendCarriesLogAndRecipient(t *testing.T) {
	transport := &stubTransport{}

	w := NewWorker(transport, WorkerConfig{BatchSize: 10})
	w.sleep = func(time.Duration) {}
	w.Start()
	defer w.Stop()

	logs := logsOf(1)
	w.deliver(Job{Campaign: domain.Campaign{ID: "camp-1", Message: "Hi there"}, Logs: logs})

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(transport.sent))
	}
	msg := transport.sent[0]
	if msg.LogID != "log-000" {
		t.Errorf("LogID = %q, want log-000", msg.LogID)
	}
	if msg.Content != "Hi there" {
		t.Errorf("Content = %q, want campaign message", msg.Content)
	}
	if msg.Recipient.ID == nil || *msg.Recipient.ID != "cust-000" {
		t.Errorf("Recipient.ID = %v, want cust-000", msg.Recipient.ID)
	}
}

func TestEnqueueLifecycle(t *testing.T) {
	done := make(chan struct{})
	w := NewWorker(&blockingTransport{release: done}, WorkerConfig{QueueSize: 1})

	if err := w.Enqueue(Job{}); err == nil {
		t.Error("Enqueue before Start should fail")
	}

	w.Start()
	if err := w.Enqueue(Job{Logs: logsOf(1)}); err != nil {
		t.Errorf("Enqueue on running worker failed: %v", err)
	}

	close(done)
	w.Stop()

	if err := w.Enqueue(Job{}); err == nil {
		t.Error("Enqueue after Stop should fail")
	}
}

type blockingTransport struct {
	release chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, msg vendor.Message) error {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}
