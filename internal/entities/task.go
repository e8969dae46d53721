// Package entities contains core business entities.
package entities

import "time"

const (
	// MinDifficulty is the lowest allowed task difficulty.
	MinDifficulty = 1
	// MaxDifficulty is the highest allowed task difficulty.
	MaxDifficulty = 10
)

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	// TaskPending marks a task not started yet.
	TaskPending TaskStatus = "Pending"
	// TaskInProgress marks a task being worked on.
	TaskInProgress TaskStatus = "InProgress"
	// TaskPendingApproval marks a task waiting for an admin to approve completion.
	TaskPendingApproval TaskStatus = "PendingApproval"
	// TaskCompleted marks an approved task.
	TaskCompleted TaskStatus = "Completed"
	// TaskOverdue marks a task past its due date.
	TaskOverdue TaskStatus = "Overdue"
)

// Valid reports whether the status is known.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskPendingApproval, TaskCompleted, TaskOverdue:
		return true
	}
	return false
}

// CountsTowardWorkload reports whether a task in this status is current load.
func (s TaskStatus) CountsTowardWorkload() bool {
	return s == TaskPending || s == TaskInProgress
}

// Task is a unit of work inside a group.
type Task struct {
	ID             string
	GroupID        string
	Name           string
	Description    string
	Difficulty     int
	Status         TaskStatus
	AssignedUserID string
	DueDate        time.Time
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAssigned reports whether the task has an assignee.
func (t Task) IsAssigned() bool {
	return t.AssignedUserID != ""
}

// ValidDifficulty reports whether d is inside the allowed range.
func ValidDifficulty(d int) bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Statuses       []TaskStatus
	AssignedUserID string
	DueFrom        *time.Time
	DueTo          *time.Time
}

// HistoryAction enumerates task history event kinds.
type HistoryAction string

const (
	// HistoryCreated records task creation.
	HistoryCreated HistoryAction = "Created"
	// HistoryAssigned records a manual assignment.
	HistoryAssigned HistoryAction = "Assigned"
	// HistoryDistributed records an assignment applied from a distribution preview.
	HistoryDistributed HistoryAction = "Distributed"
	// HistoryStatusChanged records a status transition.
	HistoryStatusChanged HistoryAction = "StatusChanged"
)

// TaskHistory is an append-only audit entry of a task.
type TaskHistory struct {
	ID                 string
	TaskID             string
	Action             HistoryAction
	PreviousAssigneeID string
	NewAssigneeID      string
	PreviousStatus     TaskStatus
	NewStatus          TaskStatus
	ChangedBy          string
	ChangedAt          time.Time
	Note               string
}
