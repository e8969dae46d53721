// Package dto holds the JSON request and response bodies of the HTTP API.
package dto

import "time"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	CodeDateRangeInvalid    ErrorCode = "DATE_RANGE_INVALID"
	CodeDateRangeTooLarge   ErrorCode = "DATE_RANGE_TOO_LARGE"
	CodeInvalidDifficulty   ErrorCode = "INVALID_DIFFICULTY"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeMemberExists        ErrorCode = "MEMBER_EXISTS"
	CodePreviewNotCompleted ErrorCode = "PREVIEW_NOT_COMPLETED"
	CodeNoMembers           ErrorCode = "NO_MEMBERS"
	CodeInvalidOperation    ErrorCode = "INVALID_OPERATION"
	CodeMethodUnavailable   ErrorCode = "METHOD_UNAVAILABLE"
	CodeInternal            ErrorCode = "INTERNAL"
)

// ErrorBody is the payload of ErrorResponse.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// CreateGroupRequest is the body of POST /api/groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Group is a group resource.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddMemberRequest is the body of POST /api/groups/:groupId/members.
type AddMemberRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Member is a group membership.
type Member struct {
	GroupID     string    `json:"groupId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// CreateTaskRequest is the body of POST /api/groups/:groupId/tasks.
type CreateTaskRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Difficulty     int    `json:"difficulty"`
	DueDate        string `json:"dueDate"`
	AssignedUserID string `json:"assignedUserId"`
}

// Task is a task resource.
type Task struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"groupId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Difficulty     int       `json:"difficulty"`
	Status         string    `json:"status"`
	AssignedUserID *string   `json:"assignedUserId"`
	DueDate        time.Time `json:"dueDate"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UpdateTaskStatusRequest is the body of POST /api/tasks/:taskId/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// TaskHistoryEntry is one audit record of a task.
type TaskHistoryEntry struct {
	ID                 string    `json:"id"`
	Action             string    `json:"action"`
	PreviousAssigneeID string    `json:"previousAssigneeId,omitempty"`
	NewAssigneeID      string    `json:"newAssigneeId,omitempty"`
	PreviousStatus     string    `json:"previousStatus,omitempty"`
	NewStatus          string    `json:"newStatus,omitempty"`
	ChangedBy          string    `json:"changedBy"`
	ChangedAt          time.Time `json:"changedAt"`
	Note               string    `json:"note,omitempty"`
}

// UserWorkload is one member's workload share.
type UserWorkload struct {
	UserID          string  `json:"userId"`
	DisplayName     string  `json:"displayName"`
	TaskCount       int     `json:"taskCount"`
	TotalDifficulty int     `json:"totalDifficulty"`
	Percentage      float64 `json:"percentage"`
}

// WorkloadMetrics is a workload snapshot of a group.
type WorkloadMetrics struct {
	GroupID                  string         `json:"groupId"`
	Range                    string         `json:"range"`
	MemberCount              int            `json:"memberCount"`
	TotalTasks               int            `json:"totalTasks"`
	TotalDifficulty          int            `json:"totalDifficulty"`
	AverageDifficultyPerUser float64        `json:"averageDifficultyPerUser"`
	MinDifficulty            int            `json:"minDifficulty"`
	MaxDifficulty            int            `json:"maxDifficulty"`
	VariancePercent          float64        `json:"variancePercent"`
	ThresholdColor           string         `json:"thresholdColor"`
	Users                    []UserWorkload `json:"users"`
}

// WorkloadPreview pairs current and hypothetical metrics.
type WorkloadPreview struct {
	Current WorkloadMetrics `json:"current"`
	Preview WorkloadMetrics `json:"preview"`
}

// GenerateRequest is the body of POST /api/distribution/generate.
type GenerateRequest struct {
	GroupID   string   `json:"groupId"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	UserIDs   []string `json:"userIds"`
	Method    string   `json:"method"`
	Reassign  bool     `json:"reassign"`
}

// GenerateResponse reports the created preview.
type GenerateResponse struct {
	PreviewID string `json:"previewId"`
	Status    string `json:"status"`
}

// AssignmentRecord is one proposed task assignment.
type AssignmentRecord struct {
	TaskID           string  `json:"taskId"`
	TaskName         string  `json:"taskName"`
	AssignedUserID   string  `json:"assignedUserId"`
	AssignedUserName string  `json:"assignedUserName"`
	Confidence       float64 `json:"confidence"`
	Rationale        string  `json:"rationale,omitempty"`
}

// DistributionStats summarizes a preview.
type DistributionStats struct {
	TotalTasks       int            `json:"totalTasks"`
	TotalUsers       int            `json:"totalUsers"`
	WorkloadVariance float64        `json:"workloadVariance"`
	TasksPerUser     map[string]int `json:"tasksPerUser"`
}

// DistributionPreview is the polled preview resource.
type DistributionPreview struct {
	ID          string             `json:"id"`
	GroupID     string             `json:"groupId"`
	Status      string             `json:"status"`
	Method      string             `json:"method"`
	Assignments []AssignmentRecord `json:"assignments"`
	Stats       DistributionStats  `json:"stats"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	ExpiresAt   time.Time          `json:"expiresAt"`
}

// Modification overrides one proposed assignee.
type Modification struct {
	TaskID            string `json:"taskId"`
	NewAssignedUserID string `json:"newAssignedUserId"`
}

// ApplyRequest is the optional body of POST /api/distribution/:id/apply.
type ApplyRequest struct {
	Modifications []Modification `json:"modifications"`
}

// ApplyResponse summarizes an applied distribution.
type ApplyResponse struct {
	AssignedCount int             `json:"assignedCount"`
	ModifiedCount int             `json:"modifiedCount"`
	FinalStats    WorkloadMetrics `json:"finalStats"`
}
