// Package domain contains application Usecases orchestrating domain logic.
package domain

import (
	"context"
	"fmt"
	"strings"

	"group-task-tracker/internal/entities"
)

// CreateGroup creates a group with the caller as its first admin.
func (u *Usecase) CreateGroup(ctx context.Context, caller entities.Caller, name string) (*entities.Group, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if caller.UserID == "" {
		return nil, entities.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", entities.ErrInvalidArgument)
	}

	now := u.now()
	group := entities.Group{ID: u.newID(), Name: name, CreatedBy: caller.UserID, CreatedAt: now}
	creator := entities.Member{
		GroupID:     group.ID,
		UserID:      caller.UserID,
		DisplayName: displayName(caller.Name, caller.UserID),
		Role:        entities.RoleAdmin,
		JoinedAt:    now,
	}
	return u.repo.CreateGroup(ctx, group, creator)
}

// AddMember adds a user to a group. Only admins may add members.
func (u *Usecase) AddMember(ctx context.Context, caller entities.Caller, member entities.Member) (*entities.Member, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireAdmin(ctx, member.GroupID, caller); err != nil {
		return nil, err
	}
	member.UserID = strings.TrimSpace(member.UserID)
	if member.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", entities.ErrInvalidArgument)
	}
	if member.Role == "" {
		member.Role = entities.RoleMember
	}
	if !member.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", entities.ErrInvalidArgument, member.Role)
	}
	member.DisplayName = displayName(member.DisplayName, member.UserID)
	member.JoinedAt = u.now()

	return u.repo.AddMember(ctx, member)
}

// ListMembers returns the members of a group ordered by join time.
func (u *Usecase) ListMembers(ctx context.Context, caller entities.Caller, groupID string) ([]entities.Member, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireMember(ctx, groupID, caller); err != nil {
		return nil, err
	}
	return u.repo.ListMembers(ctx, groupID)
}

func displayName(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}
