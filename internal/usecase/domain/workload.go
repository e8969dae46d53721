package domain

import (
	"context"
	"fmt"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/workload"
)

var workloadStatuses = []entities.TaskStatus{entities.TaskPending, entities.TaskInProgress}

// GroupWorkload computes the workload snapshot of a group for a difficulty range.
func (u *Usecase) GroupWorkload(ctx context.Context, caller entities.Caller, groupID string, rng entities.DifficultyRange) (entities.WorkloadMetrics, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireMember(ctx, groupID, caller); err != nil {
		return entities.WorkloadMetrics{}, err
	}
	members, tasks, err := u.loadWorkload(ctx, groupID)
	if err != nil {
		return entities.WorkloadMetrics{}, err
	}
	return workload.Calculate(groupID, members, tasks, rng), nil
}

// WorkloadPreview returns current metrics and metrics as if one more task of the
// given difficulty were assigned. Nothing is persisted.
func (u *Usecase) WorkloadPreview(ctx context.Context, caller entities.Caller, h entities.HypotheticalAssignment) (entities.WorkloadPreview, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireMember(ctx, h.GroupID, caller); err != nil {
		return entities.WorkloadPreview{}, err
	}
	if !entities.ValidDifficulty(h.Difficulty) {
		return entities.WorkloadPreview{}, fmt.Errorf("%w: got %d", entities.ErrInvalidDifficulty, h.Difficulty)
	}

	members, tasks, err := u.loadWorkload(ctx, h.GroupID)
	if err != nil {
		return entities.WorkloadPreview{}, err
	}
	if !hasMember(members, h.AssignedTo) {
		return entities.WorkloadPreview{}, fmt.Errorf("%w: assignedTo %q is not a group member", entities.ErrInvalidArgument, h.AssignedTo)
	}

	return entities.WorkloadPreview{
		Current: workload.Calculate(h.GroupID, members, tasks, entities.RangeAll),
		Preview: workload.Calculate(h.GroupID, members, workload.WithHypothetical(tasks, h.AssignedTo, h.Difficulty), entities.RangeAll),
	}, nil
}

func (u *Usecase) loadWorkload(ctx context.Context, groupID string) ([]entities.Member, []entities.Task, error) {
	members, err := u.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	tasks, err := u.repo.ListTasks(ctx, groupID, entities.TaskFilter{Statuses: workloadStatuses})
	if err != nil {
		return nil, nil, fmt.Errorf("list tasks: %w", err)
	}
	return members, tasks, nil
}

func hasMember(members []entities.Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
