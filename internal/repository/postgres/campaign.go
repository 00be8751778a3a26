package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/xenolabs/engage/internal/domain"
)

// CampaignRepo persists campaigns. Rule groups are stored as a JSONB column;
// they are opaque to the store and only interpreted by the rule engine.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func scanCampaign(row interface{ Scan(...any) error }) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var groupsRaw []byte
	err := row.Scan(&c.ID, &c.Name, &c.Message, &groupsRaw, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(groupsRaw) > 0 {
		if err := json.Unmarshal(groupsRaw, &c.RuleGroups); err != nil {
			return nil, fmt.Errorf("decode rule groups: %w", err)
		}
	}
	return c, nil
}

// FindCampaignByID loads one campaign, mapping a miss to domain.ErrNotFound.
func (r *CampaignRepo) FindCampaignByID(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, message, rule_groups, status, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id)

	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// List returns campaigns newest first.
func (r *CampaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, message, rule_groups, status, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create inserts a campaign, defaulting status to draft.
func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}

	groupsRaw, err := json.Marshal(c.RuleGroups)
	if err != nil {
		return fmt.Errorf("encode rule groups: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, message, rule_groups, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, c.ID, c.Name, c.Message, groupsRaw, c.Status)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a campaign.
func (r *CampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	groupsRaw, err := json.Marshal(c.RuleGroups)
	if err != nil {
		return fmt.Errorf("encode rule groups: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET name = $2, message = $3, rule_groups = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.Message, groupsRaw, c.Status)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCampaignStatus flips only the status column.
func (r *CampaignRepo) UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a campaign.
func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
