package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
)

const (
	insertPreviewQuery = `
INSERT INTO distribution_previews(id, group_id, requested_by, status, method, assignments, stats, error, created_at, updated_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	selectPreviewStatusForUpdateQuery = `SELECT status FROM distribution_previews WHERE id=$1 FOR UPDATE`
	updatePreviewQuery                = `
UPDATE distribution_previews
SET status=$2, assignments=$3, stats=$4, error=$5, updated_at=$6
WHERE id=$1`
	selectPreviewQuery = `
SELECT id, group_id, requested_by, status, method, assignments, stats, error, created_at, updated_at, expires_at
FROM distribution_previews WHERE id=$1`
	deleteExpiredPreviewsQuery = `DELETE FROM distribution_previews WHERE expires_at <= $1`
)

// CreatePreview persists a new preview.
func (p *Postgres) CreatePreview(ctx context.Context, preview entities.DistributionPreview) error {
	assignments, stats, err := encodePreview(preview)
	if err != nil {
		return err
	}

	if _, err := p.db.Exec(ctx, insertPreviewQuery,
		preview.ID, preview.GroupID, preview.RequestedBy, preview.Status, preview.Method,
		assignments, stats, preview.Error, preview.CreatedAt, preview.UpdatedAt, preview.ExpiresAt,
	); err != nil {
		p.log.Errorw("failed to insert preview", "error", err, "preview_id", preview.ID)
		return fmt.Errorf("insert preview: %w", err)
	}
	return nil
}

// UpdatePreview stores a forward status transition with its payload. Terminal
// previews are never rewritten.
func (p *Postgres) UpdatePreview(ctx context.Context, preview entities.DistributionPreview) error {
	assignments, stats, err := encodePreview(preview)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current entities.PreviewStatus
	if err := tx.QueryRow(ctx, selectPreviewStatusForUpdateQuery, preview.ID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.ErrPreviewNotFound
		}
		return fmt.Errorf("preview status: %w", err)
	}
	if !current.CanTransitionTo(preview.Status) {
		return fmt.Errorf("%w: preview %s cannot move from %s to %s", entities.ErrInvalidOperation, preview.ID, current, preview.Status)
	}

	if _, err := tx.Exec(ctx, updatePreviewQuery,
		preview.ID, preview.Status, assignments, stats, preview.Error, preview.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update preview: %w", err)
	}

	return tx.Commit(ctx)
}

// GetPreview fetches a preview by id regardless of expiry.
func (p *Postgres) GetPreview(ctx context.Context, previewID string) (*entities.DistributionPreview, error) {
	var (
		res         entities.DistributionPreview
		assignments []byte
		stats       []byte
	)
	if err := p.db.QueryRow(ctx, selectPreviewQuery, previewID).Scan(
		&res.ID, &res.GroupID, &res.RequestedBy, &res.Status, &res.Method,
		&assignments, &stats, &res.Error, &res.CreatedAt, &res.UpdatedAt, &res.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrPreviewNotFound
		}
		return nil, fmt.Errorf("get preview: %w", err)
	}

	if err := json.Unmarshal(assignments, &res.Assignments); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	if err := json.Unmarshal(stats, &res.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &res, nil
}

// DeleteExpiredPreviews removes previews whose expiry is at or before now.
func (p *Postgres) DeleteExpiredPreviews(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, deleteExpiredPreviewsQuery, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired previews: %w", err)
	}
	return tag.RowsAffected(), nil
}

func encodePreview(preview entities.DistributionPreview) ([]byte, []byte, error) {
	records := preview.Assignments
	if records == nil {
		records = []entities.AssignmentRecord{}
	}
	assignments, err := json.Marshal(records)
	if err != nil {
		return nil, nil, fmt.Errorf("encode assignments: %w", err)
	}
	stats, err := json.Marshal(preview.Stats)
	if err != nil {
		return nil, nil, fmt.Errorf("encode stats: %w", err)
	}
	return assignments, stats, nil
}
