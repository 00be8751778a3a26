package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/xenolabs/engage/internal/dispatch"
	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/receipts"
)

func TestBulkInsertLogsAssignsIDs(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO communication_logs`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewLogRepo(db)
	custA, custB := "cust-a", "cust-b"
	logs := []domain.CommunicationLog{
		{CampaignID: "camp-1", CustomerID: &custA, Message: "hi", Status: domain.LogDelivered, DeliveryAttempts: 1},
		{CampaignID: "camp-1", CustomerID: &custB, Message: "hi", Status: domain.LogDelivered, DeliveryAttempts: 1},
	}

	saved, err := repo.BulkInsertLogs(context.Background(), logs)
	if err != nil {
		t.Fatalf("BulkInsertLogs() error: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d records, want 2", len(saved))
	}
	for i, l := range saved {
		if l.ID == "" {
			t.Errorf("record %d has no assigned id", i)
		}
	}
	if saved[0].ID == saved[1].ID {
		t.Error("assigned ids must be distinct")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBulkInsertLogsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewLogRepo(db)
	saved, err := repo.BulkInsertLogs(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkInsertLogs(nil) error: %v", err)
	}
	if saved != nil {
		t.Errorf("saved = %v, want nil", saved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no statements should run for an empty batch: %v", err)
	}
}

func TestCountLogsByCampaign(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM communication_logs WHERE campaign_id = \$1`).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	repo := NewLogRepo(db)
	count, err := repo.CountLogs(context.Background(), dispatch.LogFilter{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("CountLogs() error: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBulkUpdateLogsCountsMatches(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`UPDATE communication_logs`)
	prep.ExpectExec().WithArgs("log-1", string(domain.LogSent), now, nil, []byte(`{"messageId":"msg_1"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("log-missing", string(domain.LogSent), now, nil, []byte(`null`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewLogRepo(db)
	updates := []receipts.LogUpdate{
		{ID: "log-1", Status: domain.LogSent, LastAttemptAt: now, DeliveryReceipt: map[string]any{"messageId": "msg_1"}},
		{ID: "log-missing", Status: domain.LogSent, LastAttemptAt: now},
	}

	br, err := repo.BulkUpdateLogs(context.Background(), updates)
	if err != nil {
		t.Fatalf("BulkUpdateLogs() error: %v", err)
	}
	if br.Matched != 1 || br.Modified != 1 {
		t.Errorf("result = %+v, want matched=modified=1", br)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBulkUpdateLogsRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`UPDATE communication_logs`)
	prep.ExpectExec().WithArgs("log-1", string(domain.LogSent), now, nil, []byte(`null`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewLogRepo(db)
	if _, err := repo.BulkUpdateLogs(context.Background(), []receipts.LogUpdate{
		{ID: "log-1", Status: domain.LogSent, LastAttemptAt: now},
	}); err == nil {
		t.Fatal("BulkUpdateLogs() should surface exec errors")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCampaignLogStats(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"campaign_id", "total", "sent", "failed"}).
		AddRow("camp-1", 120, 108, 12).
		AddRow("camp-2", 1, 1, 0)
	mock.ExpectQuery(`SELECT campaign_id`).WillReturnRows(rows)

	repo := NewLogRepo(db)
	stats, err := repo.CampaignLogStats(context.Background())
	if err != nil {
		t.Fatalf("CampaignLogStats() error: %v", err)
	}
	if got := stats["camp-1"]; got.Total != 120 || got.Sent != 108 || got.Failed != 12 {
		t.Errorf("camp-1 stats = %+v", got)
	}
	if got := stats["camp-2"]; got.Total != 1 {
		t.Errorf("camp-2 stats = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
