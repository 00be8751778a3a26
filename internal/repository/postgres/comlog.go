package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/xenolabs/engage/internal/dispatch"
	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/receipts"
)

// LogRepo persists communication log records. The dispatcher bulk-inserts,
// the reconciler bulk-updates; distinct log ids never contend, so every
// statement is a plain per-record atomic write.
type LogRepo struct{ db *sql.DB }

// NewLogRepo creates a Postgres-backed communication log repository.
func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

// BulkInsertLogs inserts one batch in a single multi-row statement and
// returns the records with their assigned ids.
func (r *LogRepo) BulkInsertLogs(ctx context.Context, logs []domain.CommunicationLog) ([]domain.CommunicationLog, error) {
	if len(logs) == 0 {
		return nil, nil
	}

	builder := psql.
		Insert("communication_logs").
		Columns("id", "campaign_id", "customer_id", "message", "status",
			"delivery_attempts", "last_attempt_at", "error_message", "metadata")

	out := make([]domain.CommunicationLog, len(logs))
	for i, l := range logs {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		meta, err := json.Marshal(l.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode log metadata: %w", err)
		}
		builder = builder.Values(l.ID, l.CampaignID, l.CustomerID, l.Message,
			l.Status, l.DeliveryAttempts, l.LastAttemptAt, l.ErrorMessage, meta)
		out[i] = l
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bulk insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("bulk insert logs: %w", err)
	}
	return out, nil
}

// CountLogs counts records matching the filter.
func (r *LogRepo) CountLogs(ctx context.Context, filter dispatch.LogFilter) (int, error) {
	builder := psql.Select("COUNT(*)").From("communication_logs")
	if filter.CampaignID != "" {
		builder = builder.Where(sq.Eq{"campaign_id": filter.CampaignID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return count, nil
}

// BulkUpdateLogs applies one reconciliation batch inside a transaction.
// Each update is an independent update-by-id; an unknown id matches zero
// rows and is not an error.
func (r *LogRepo) BulkUpdateLogs(ctx context.Context, updates []receipts.LogUpdate) (receipts.BatchResult, error) {
	var result receipts.BatchResult
	if len(updates) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE communication_logs
		SET status = $2,
		    last_attempt_at = $3,
		    error_message = $4,
		    metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{deliveryReceipt}', $5::jsonb, true),
		    updated_at = NOW()
		WHERE id = $1
	`)
	if err != nil {
		return result, fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		receipt, err := json.Marshal(u.DeliveryReceipt)
		if err != nil {
			return result, fmt.Errorf("encode receipt: %w", err)
		}
		res, err := stmt.ExecContext(ctx, u.ID, u.Status, u.LastAttemptAt, u.ErrorMessage, receipt)
		if err != nil {
			return result, fmt.Errorf("update log %s: %w", u.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Matched++
			result.Modified++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// LogStats aggregates one campaign's log statuses for the history view.
type LogStats struct {
	Total  int
	Sent   int
	Failed int
}

// CampaignLogStats returns per-campaign log aggregates in one pass. Sent
// counts both "sent" and "delivered" records.
func (r *LogRepo) CampaignLogStats(ctx context.Context) (map[string]LogStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('sent', 'delivered')),
		       COUNT(*) FILTER (WHERE status = 'failed')
		FROM communication_logs
		GROUP BY campaign_id
	`)
	if err != nil {
		return nil, fmt.Errorf("log stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]LogStats)
	for rows.Next() {
		var campaignID string
		var s LogStats
		if err := rows.Scan(&campaignID, &s.Total, &s.Sent, &s.Failed); err != nil {
			return nil, fmt.Errorf("scan log stats: %w", err)
		}
		stats[campaignID] = s
	}
	return stats, rows.Err()
}
