package usecase

import (
	"context"
	"time"

	"group-task-tracker/internal/entities"
)

// GroupUsecaseInterface abstracts group and membership operations for delivery layer.
type GroupUsecaseInterface interface {
	CreateGroup(ctx context.Context, caller entities.Caller, name string) (*entities.Group, error)
	AddMember(ctx context.Context, caller entities.Caller, member entities.Member) (*entities.Member, error)
	ListMembers(ctx context.Context, caller entities.Caller, groupID string) ([]entities.Member, error)
}

// TaskUsecaseInterface abstracts task operations.
type TaskUsecaseInterface interface {
	CreateTask(ctx context.Context, caller entities.Caller, task entities.Task) (*entities.Task, error)
	ListTasks(ctx context.Context, caller entities.Caller, groupID string, filter entities.TaskFilter) ([]entities.Task, error)
	UpdateTaskStatus(ctx context.Context, caller entities.Caller, taskID string, to entities.TaskStatus) (*entities.Task, error)
	TaskHistory(ctx context.Context, caller entities.Caller, taskID string) ([]entities.TaskHistory, error)
}

// WorkloadUsecaseInterface abstracts workload metrics.
type WorkloadUsecaseInterface interface {
	GroupWorkload(ctx context.Context, caller entities.Caller, groupID string, rng entities.DifficultyRange) (entities.WorkloadMetrics, error)
	WorkloadPreview(ctx context.Context, caller entities.Caller, h entities.HypotheticalAssignment) (entities.WorkloadPreview, error)
}

// DistributionUsecaseInterface abstracts preview generation and application.
type DistributionUsecaseInterface interface {
	GenerateDistribution(ctx context.Context, caller entities.Caller, req entities.GenerateRequest) (*entities.DistributionPreview, error)
	GetPreview(ctx context.Context, caller entities.Caller, previewID string) (*entities.DistributionPreview, error)
	ApplyDistribution(ctx context.Context, caller entities.Caller, previewID string, mods []entities.Modification) (*entities.ApplyResult, error)
}

// MaintenanceUsecaseInterface abstracts background housekeeping.
type MaintenanceUsecaseInterface interface {
	SweepExpiredPreviews(ctx context.Context) (int64, error)
	RunSweeper(ctx context.Context, interval time.Duration)
	Wait()
}
