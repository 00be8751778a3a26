// Package dispatch turns a resolved audience into communication log
// records and hands delivery to a background worker. The dispatch call
// itself is fire-and-forget: the caller gets a recipient count and a
// "processing" status before any message reaches the vendor.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xenolabs/engage/internal/audience"
	"github.com/xenolabs/engage/internal/domain"
)

// DefaultInsertBatchSize bounds one bulk log insert.
const DefaultInsertBatchSize = 100

// CampaignStore is the campaign slice of the CRUD collaborator.
type CampaignStore interface {
	FindCampaignByID(ctx context.Context, id string) (*domain.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus) error
}

// LogFilter narrows log lookups. Zero fields are ignored.
type LogFilter struct {
	CampaignID string
}

// LogStore is the communication-log slice of the CRUD collaborator.
type LogStore interface {
	BulkInsertLogs(ctx context.Context, logs []domain.CommunicationLog) ([]domain.CommunicationLog, error)
	CountLogs(ctx context.Context, filter LogFilter) (int, error)
}

// Result is the immediate acknowledgment a dispatch caller receives.
type Result struct {
	TotalRecipients int    `json:"totalRecipients"`
	Status          string `json:"status"`
}

// Dispatcher resolves a campaign's audience, creates its log records, and
// enqueues background delivery.
type Dispatcher struct {
	campaigns CampaignStore
	logs      LogStore
	resolver  *audience.Resolver
	worker    *Worker

	insertBatchSize int
	now             func() time.Time
}

// DispatcherConfig tunes log-record creation. Zero values take defaults.
type DispatcherConfig struct {
	InsertBatchSize int
}

// NewDispatcher wires a dispatcher. The worker must be started separately.
func NewDispatcher(campaigns CampaignStore, logs LogStore, resolver *audience.Resolver, worker *Worker, cfg DispatcherConfig) *Dispatcher {
	if cfg.InsertBatchSize <= 0 {
		cfg.InsertBatchSize = DefaultInsertBatchSize
	}
	return &Dispatcher{
		campaigns:       campaigns,
		logs:            logs,
		resolver:        resolver,
		worker:          worker,
		insertBatchSize: cfg.InsertBatchSize,
		now:             time.Now,
	}
}

// Dispatch initiates delivery for the campaign's rule-matched audience.
//
// Log records are created with status "delivered" up front; that status is
// provisional and gets overwritten when the vendor's receipt arrives. The
// campaign flips to completed as a submission acknowledgment, regardless of
// how delivery later goes.
func (d *Dispatcher) Dispatch(ctx context.Context, campaignID string) (*Result, error) {
	campaign, err := d.campaigns.FindCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	aud, err := d.resolver.Resolve(ctx, campaign.RuleGroups)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	now := d.now()
	var created []domain.CommunicationLog
	for start := 0; start < len(aud.Matched); start += d.insertBatchSize {
		end := start + d.insertBatchSize
		if end > len(aud.Matched) {
			end = len(aud.Matched)
		}

		batch := make([]domain.CommunicationLog, 0, end-start)
		for _, c := range aud.Matched[start:end] {
			customerID := c.ID
			batch = append(batch, domain.CommunicationLog{
				CampaignID:       campaign.ID,
				CustomerID:       &customerID,
				Message:          campaign.Message,
				Status:           domain.LogDelivered,
				DeliveryAttempts: 1,
				LastAttemptAt:    &now,
				Metadata: map[string]any{
					"customerName":  c.Name,
					"customerEmail": c.Email,
				},
			})
		}

		saved, err := d.logs.BulkInsertLogs(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("insert log batch: %w", err)
		}
		created = append(created, saved...)
	}

	// Every campaign keeps at least one log record so history always has
	// something to report on.
	count, err := d.logs.CountLogs(ctx, LogFilter{CampaignID: campaign.ID})
	if err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	if count == 0 {
		placeholder := domain.CommunicationLog{
			CampaignID:       campaign.ID,
			CustomerID:       nil,
			Message:          campaign.Message,
			Status:           domain.LogDelivered,
			DeliveryAttempts: 1,
			LastAttemptAt:    &now,
			Metadata:         map[string]any{"note": "auto-created for campaign history completeness"},
		}
		if _, err := d.logs.BulkInsertLogs(ctx, []domain.CommunicationLog{placeholder}); err != nil {
			return nil, fmt.Errorf("insert placeholder log: %w", err)
		}
	}

	if err := d.campaigns.UpdateCampaignStatus(ctx, campaign.ID, domain.CampaignCompleted); err != nil {
		return nil, fmt.Errorf("complete campaign: %w", err)
	}

	// Background delivery. A full queue is logged and dropped rather than
	// surfaced: the caller's response does not depend on delivery.
	if len(created) > 0 {
		if err := d.worker.Enqueue(Job{Campaign: *campaign, Logs: created}); err != nil {
			log.Printf("[Dispatcher] enqueue delivery for campaign %s: %v", campaign.ID, err)
		}
	}

	return &Result{TotalRecipients: len(aud.Matched), Status: "processing"}, nil
}
