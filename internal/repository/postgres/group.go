package postgres

import (
	"context"
	"errors"
	"fmt"

	"group-task-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertGroupQuery  = `INSERT INTO groups(id, name, created_by, created_at) VALUES ($1,$2,$3,$4)`
	selectGroupQuery  = `SELECT id, name, created_by, created_at FROM groups WHERE id=$1`
	groupExistsQuery  = `SELECT EXISTS(SELECT 1 FROM groups WHERE id=$1)`
	insertMemberQuery = `
INSERT INTO group_members(group_id, user_id, display_name, role, joined_at)
VALUES ($1,$2,$3,$4,$5)`
	selectMemberQuery = `
SELECT group_id, user_id, display_name, role, joined_at
FROM group_members WHERE group_id=$1 AND user_id=$2`
	selectMembersQuery = `
SELECT group_id, user_id, display_name, role, joined_at
FROM group_members WHERE group_id=$1
ORDER BY joined_at, user_id`
)

// CreateGroup inserts a group together with its first admin member.
func (p *Postgres) CreateGroup(ctx context.Context, group entities.Group, creator entities.Member) (*entities.Group, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertGroupQuery, group.ID, group.Name, group.CreatedBy, group.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	if _, err := tx.Exec(ctx, insertMemberQuery, group.ID, creator.UserID, creator.DisplayName, creator.Role, creator.JoinedAt); err != nil {
		return nil, fmt.Errorf("insert creator: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("group created", "group_id", group.ID, "created_by", group.CreatedBy)
	return &group, nil
}

// GetGroup fetches a group by id.
func (p *Postgres) GetGroup(ctx context.Context, groupID string) (*entities.Group, error) {
	var g entities.Group
	if err := p.db.QueryRow(ctx, selectGroupQuery, groupID).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

// AddMember inserts a membership row.
func (p *Postgres) AddMember(ctx context.Context, member entities.Member) (*entities.Member, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, groupExistsQuery, member.GroupID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("group lookup: %w", err)
	}
	if !exists {
		return nil, entities.ErrGroupNotFound
	}

	if _, err := p.db.Exec(ctx, insertMemberQuery, member.GroupID, member.UserID, member.DisplayName, member.Role, member.JoinedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, entities.ErrMemberExists
		}
		p.log.Errorw("failed to insert member", "error", err, "group_id", member.GroupID, "user_id", member.UserID)
		return nil, fmt.Errorf("insert member: %w", err)
	}

	p.log.Infow("member added", "group_id", member.GroupID, "user_id", member.UserID, "role", member.Role)
	return &member, nil
}

// GetMember fetches one membership.
func (p *Postgres) GetMember(ctx context.Context, groupID, userID string) (*entities.Member, error) {
	var m entities.Member
	if err := p.db.QueryRow(ctx, selectMemberQuery, groupID, userID).
		Scan(&m.GroupID, &m.UserID, &m.DisplayName, &m.Role, &m.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// ListMembers returns group members ordered by join time.
func (p *Postgres) ListMembers(ctx context.Context, groupID string) ([]entities.Member, error) {
	rows, err := p.db.Query(ctx, selectMembersQuery, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]entities.Member, 0)
	for rows.Next() {
		var m entities.Member
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.DisplayName, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}
