package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"group-task-tracker/internal/entities"
)

// CreateTask creates a pending task in a group, optionally assigned.
func (u *Usecase) CreateTask(ctx context.Context, caller entities.Caller, task entities.Task) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireMember(ctx, task.GroupID, caller); err != nil {
		return nil, err
	}
	task.Name = strings.TrimSpace(task.Name)
	if task.Name == "" {
		return nil, fmt.Errorf("%w: name is required", entities.ErrInvalidArgument)
	}
	if !entities.ValidDifficulty(task.Difficulty) {
		return nil, fmt.Errorf("%w: got %d", entities.ErrInvalidDifficulty, task.Difficulty)
	}
	if task.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: dueDate is required", entities.ErrInvalidArgument)
	}
	if task.AssignedUserID != "" {
		if _, err := u.repo.GetMember(ctx, task.GroupID, task.AssignedUserID); err != nil {
			if errors.Is(err, entities.ErrMemberNotFound) {
				return nil, fmt.Errorf("%w: assignee %s is not a group member", entities.ErrInvalidArgument, task.AssignedUserID)
			}
			return nil, err
		}
	}

	now := u.now()
	task.ID = u.newID()
	task.Status = entities.TaskPending
	task.CreatedBy = caller.UserID
	task.CreatedAt = now
	task.UpdatedAt = now
	task.DueDate = task.DueDate.UTC()

	history := []entities.TaskHistory{{
		ID:        u.newID(),
		TaskID:    task.ID,
		Action:    entities.HistoryCreated,
		NewStatus: entities.TaskPending,
		ChangedBy: caller.UserID,
		ChangedAt: now,
	}}
	if task.IsAssigned() {
		history = append(history, entities.TaskHistory{
			ID:            u.newID(),
			TaskID:        task.ID,
			Action:        entities.HistoryAssigned,
			NewAssigneeID: task.AssignedUserID,
			ChangedBy:     caller.UserID,
			ChangedAt:     now,
		})
	}

	created, err := u.repo.CreateTask(ctx, task, history)
	if err != nil {
		u.log.Errorw("failed to create task", "error", err, "group_id", task.GroupID)
		return nil, err
	}
	return created, nil
}

// ListTasks lists group tasks matching filter.
func (u *Usecase) ListTasks(ctx context.Context, caller entities.Caller, groupID string, filter entities.TaskFilter) ([]entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireMember(ctx, groupID, caller); err != nil {
		return nil, err
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidArgument, s)
		}
	}
	if filter.DueFrom != nil && filter.DueTo != nil && filter.DueTo.Before(*filter.DueFrom) {
		return nil, entities.ErrDateRangeInvalid
	}
	return u.repo.ListTasks(ctx, groupID, filter)
}

// UpdateTaskStatus runs the approval workflow: the assignee starts work and
// submits it, an admin approves or sends it back.
func (u *Usecase) UpdateTaskStatus(ctx context.Context, caller entities.Caller, taskID string, to entities.TaskStatus) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidArgument, to)
	}
	task, err := u.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	member, err := u.requireMember(ctx, task.GroupID, caller)
	if err != nil {
		return nil, err
	}

	switch {
	case task.Status == entities.TaskPending && to == entities.TaskInProgress,
		task.Status == entities.TaskInProgress && to == entities.TaskPendingApproval:
		if task.AssignedUserID != caller.UserID {
			return nil, fmt.Errorf("%w: only the assignee can move the task to %s", entities.ErrForbidden, to)
		}
	case task.Status == entities.TaskPendingApproval && (to == entities.TaskCompleted || to == entities.TaskInProgress):
		if !member.IsAdmin() {
			return nil, fmt.Errorf("%w: only an admin can review a task", entities.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: cannot move task from %s to %s", entities.ErrInvalidOperation, task.Status, to)
	}

	entry := entities.TaskHistory{
		ID:             u.newID(),
		TaskID:         task.ID,
		Action:         entities.HistoryStatusChanged,
		PreviousStatus: task.Status,
		NewStatus:      to,
		ChangedBy:      caller.UserID,
		ChangedAt:      u.now(),
	}
	updated, err := u.repo.UpdateTaskStatus(ctx, task.ID, task.Status, to, entry)
	if err != nil {
		return nil, err
	}
	u.log.Infow("task status changed", "task_id", task.ID, "from", task.Status, "to", to, "by", caller.UserID)
	return updated, nil
}

// TaskHistory returns the history of a task, newest first.
func (u *Usecase) TaskHistory(ctx context.Context, caller entities.Caller, taskID string) ([]entities.TaskHistory, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	task, err := u.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := u.requireMember(ctx, task.GroupID, caller); err != nil {
		return nil, err
	}
	return u.repo.TaskHistory(ctx, taskID)
}
