// Package repository contains repository interfaces for persistence layers.
package repository

import (
	"context"
	"time"

	"group-task-tracker/internal/entities"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// GroupInterface exposes group and membership operations.
type GroupInterface interface {
	CreateGroup(ctx context.Context, group entities.Group, creator entities.Member) (*entities.Group, error)
	GetGroup(ctx context.Context, groupID string) (*entities.Group, error)
	AddMember(ctx context.Context, member entities.Member) (*entities.Member, error)
	GetMember(ctx context.Context, groupID, userID string) (*entities.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]entities.Member, error)
}

// TaskInterface exposes task reads and writes. Every write appends its history
// entries in the same atomic unit as the task change.
type TaskInterface interface {
	CreateTask(ctx context.Context, task entities.Task, history []entities.TaskHistory) (*entities.Task, error)
	GetTask(ctx context.Context, taskID string) (*entities.Task, error)
	FindTasks(ctx context.Context, taskIDs []string) (map[string]entities.Task, error)
	ListTasks(ctx context.Context, groupID string, filter entities.TaskFilter) ([]entities.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, from, to entities.TaskStatus, entry entities.TaskHistory) (*entities.Task, error)
	AssignTask(ctx context.Context, taskID, assigneeID string, entry entities.TaskHistory) (*entities.Task, error)
}

// HistoryInterface exposes task history reads.
type HistoryInterface interface {
	TaskHistory(ctx context.Context, taskID string) ([]entities.TaskHistory, error)
}

// PreviewInterface exposes distribution preview persistence.
type PreviewInterface interface {
	CreatePreview(ctx context.Context, preview entities.DistributionPreview) error
	UpdatePreview(ctx context.Context, preview entities.DistributionPreview) error
	GetPreview(ctx context.Context, previewID string) (*entities.DistributionPreview, error)
	DeleteExpiredPreviews(ctx context.Context, now time.Time) (int64, error)
}
