// Package receipts reconciles asynchronous vendor delivery outcomes into
// communication log records. Receipts arrive out of order and possibly long
// after the dispatch that produced the log; each update stands alone.
package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/xenolabs/engage/internal/domain"
)

// DefaultBatchSize bounds one bulk update.
const DefaultBatchSize = 100

// LogUpdate is one update-by-id applied to a communication log record.
type LogUpdate struct {
	ID              string
	Status          domain.LogStatus
	LastAttemptAt   time.Time
	ErrorMessage    *string
	DeliveryReceipt map[string]any
}

// BatchResult reports one bulk update. An unknown log id simply matches
// nothing, so Matched can be smaller than the batch.
type BatchResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// LogUpdater is the bulk-update slice of the CRUD collaborator.
type LogUpdater interface {
	BulkUpdateLogs(ctx context.Context, updates []LogUpdate) (BatchResult, error)
}

// Result is the reconciliation summary returned to the receipt submitter.
type Result struct {
	ProcessedCount int           `json:"processedCount"`
	BatchResults   []BatchResult `json:"batchResults"`
}

// Reconciler applies delivery receipts in fixed-size batches. Applying the
// same receipt twice is harmless: the update is last-write-wins with no
// ordering enforced between receipts for the same log.
type Reconciler struct {
	store     LogUpdater
	batchSize int
	now       func() time.Time
}

// NewReconciler creates a reconciler over the given log store.
func NewReconciler(store LogUpdater) *Reconciler {
	return &Reconciler{store: store, batchSize: DefaultBatchSize, now: time.Now}
}

// Reconcile applies every receipt and returns per-batch results. A failed
// batch aborts reconciliation; receipts already applied stay applied.
func (r *Reconciler) Reconcile(ctx context.Context, receipts []domain.DeliveryReceipt) (*Result, error) {
	result := &Result{ProcessedCount: len(receipts)}

	for start := 0; start < len(receipts); start += r.batchSize {
		end := start + r.batchSize
		if end > len(receipts) {
			end = len(receipts)
		}

		now := r.now()
		updates := make([]LogUpdate, 0, end-start)
		for _, rcpt := range receipts[start:end] {
			updates = append(updates, LogUpdate{
				ID:              rcpt.LogID,
				Status:          rcpt.Status,
				LastAttemptAt:   now,
				ErrorMessage:    rcpt.ErrorMessage,
				DeliveryReceipt: rcpt.Receipt,
			})
		}

		br, err := r.store.BulkUpdateLogs(ctx, updates)
		if err != nil {
			return nil, fmt.Errorf("bulk update logs: %w", err)
		}
		result.BatchResults = append(result.BatchResults, br)
	}

	return result, nil
}

// SubmitReceipts lets the reconciler act as an in-process vendor.ReceiptSink.
func (r *Reconciler) SubmitReceipts(ctx context.Context, receipts []domain.DeliveryReceipt) error {
	_, err := r.Reconcile(ctx, receipts)
	return err
}
