package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/vendor"
)

// DefaultDeliveryBatchSize is the fan-out degree per delivery batch.
const DefaultDeliveryBatchSize = 50

// DefaultBatchPause is the fixed backpressure delay between batches.
const DefaultBatchPause = time.Second

// Job is one campaign's delivery work: the log records created at dispatch
// time, each of which becomes one vendor send.
type Job struct {
	Campaign domain.Campaign
	Logs     []domain.CommunicationLog
}

// Worker consumes delivery jobs from a bounded queue. Within a job it sends
// each batch concurrently, waits for the whole batch to settle, then pauses
// before the next batch. A failed recipient is counted and logged, never
// propagated: one bad send cannot sink its siblings or the campaign.
type Worker struct {
	transport vendor.Transport
	batchSize int
	pause     time.Duration

	jobs chan Job

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Stats
	totalSent   int64
	totalFailed int64

	sleep func(time.Duration)
}

// WorkerConfig tunes the delivery worker. Zero values take defaults.
type WorkerConfig struct {
	BatchSize int
	Pause     time.Duration
	QueueSize int
}

// NewWorker creates a delivery worker over the given transport.
func NewWorker(transport vendor.Transport, cfg WorkerConfig) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultDeliveryBatchSize
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultBatchPause
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Worker{
		transport: transport,
		batchSize: cfg.BatchSize,
		pause:     cfg.Pause,
		jobs:      make(chan Job, cfg.QueueSize),
		sleep:     time.Sleep,
	}
}

// Start begins consuming delivery jobs.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	log.Printf("[DeliveryWorker] Starting (batch_size=%d pause=%s)", w.batchSize, w.pause)

	w.wg.Add(1)
	go w.run()
}

// Stop drains nothing and stops the worker. In-flight batches finish their
// current sends; queued jobs are abandoned.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	log.Printf("[DeliveryWorker] Stopped. Total sent: %d, failed: %d",
		atomic.LoadInt64(&w.totalSent), atomic.LoadInt64(&w.totalFailed))
}

// Enqueue submits a job without blocking. It fails when the queue is full
// or the worker is not running.
func (w *Worker) Enqueue(job Job) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return fmt.Errorf("delivery worker not running")
	}

	select {
	case w.jobs <- job:
		return nil
	default:
		return fmt.Errorf("delivery queue full (%d jobs)", cap(w.jobs))
	}
}

// Stats returns cumulative send counters.
func (w *Worker) Stats() map[string]int64 {
	return map[string]int64{
		"total_sent":   atomic.LoadInt64(&w.totalSent),
		"total_failed": atomic.LoadInt64(&w.totalFailed),
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case job := <-w.jobs:
			w.deliver(job)
		}
	}
}

// deliver fans the job out in batches. Batch N+1 never starts before every
// send in batch N has settled and the inter-batch pause has elapsed.
func (w *Worker) deliver(job Job) {
	log.Printf("[DeliveryWorker] Campaign %s: delivering %d messages", job.Campaign.ID, len(job.Logs))

	for start := 0; start < len(job.Logs); start += w.batchSize {
		if w.ctx.Err() != nil {
			return
		}
		if start > 0 {
			w.sleep(w.pause)
		}

		end := start + w.batchSize
		if end > len(job.Logs) {
			end = len(job.Logs)
		}
		batch := job.Logs[start:end]

		var wg sync.WaitGroup
		for _, logRec := range batch {
			wg.Add(1)
			go func(rec domain.CommunicationLog) {
				defer wg.Done()
				w.send(job.Campaign, rec)
			}(logRec)
		}
		wg.Wait()
	}
}

func (w *Worker) send(campaign domain.Campaign, rec domain.CommunicationLog) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.totalFailed, 1)
			log.Printf("[DeliveryWorker] panic sending log %s: %v", rec.ID, r)
		}
	}()

	msg := vendor.Message{
		LogID:   rec.ID,
		Content: campaign.Message,
		Recipient: vendor.Recipient{
			ID:       rec.CustomerID,
			Metadata: rec.Metadata,
		},
	}

	if err := w.transport.Send(w.ctx, msg); err != nil {
		atomic.AddInt64(&w.totalFailed, 1)
		log.Printf("[DeliveryWorker] send error for log %s: %v", rec.ID, err)
		return
	}
	atomic.AddInt64(&w.totalSent, 1)
}
