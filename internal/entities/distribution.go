// Package entities contains core business entities.
package entities

import (
	"fmt"
	"strings"
	"time"
)

// PreviewStatus enumerates distribution preview lifecycle states.
type PreviewStatus string

const (
	// PreviewPending marks a freshly created preview.
	PreviewPending PreviewStatus = "Pending"
	// PreviewProcessing marks a preview being generated.
	PreviewProcessing PreviewStatus = "Processing"
	// PreviewCompleted marks a preview with assignments ready to apply.
	PreviewCompleted PreviewStatus = "Completed"
	// PreviewFailed marks a preview whose generation failed.
	PreviewFailed PreviewStatus = "Failed"
)

// Terminal reports whether no further transitions are allowed.
func (s PreviewStatus) Terminal() bool {
	return s == PreviewCompleted || s == PreviewFailed
}

// CanTransitionTo reports whether moving from s to next goes forward.
func (s PreviewStatus) CanTransitionTo(next PreviewStatus) bool {
	switch s {
	case PreviewPending:
		return next == PreviewProcessing || next == PreviewFailed
	case PreviewProcessing:
		return next == PreviewCompleted || next == PreviewFailed
	default:
		return false
	}
}

// DistributionMethod selects the proposer used for a preview.
type DistributionMethod string

const (
	// MethodRuleBased is the deterministic greedy distributor.
	MethodRuleBased DistributionMethod = "Rule-Based"
	// MethodAI delegates assignment to a language model.
	MethodAI DistributionMethod = "AI"
)

// ParseDistributionMethod parses a method name; empty means rule-based.
func ParseDistributionMethod(s string) (DistributionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rule-based", "rulebased", "rule_based":
		return MethodRuleBased, nil
	case "ai":
		return MethodAI, nil
	}
	return "", fmt.Errorf("%w: unknown distribution method %q", ErrInvalidArgument, s)
}

// AssignmentRecord is one proposed task to user mapping inside a preview.
type AssignmentRecord struct {
	TaskID           string  `json:"taskId"`
	TaskName         string  `json:"taskName"`
	AssignedUserID   string  `json:"assignedUserId"`
	AssignedUserName string  `json:"assignedUserName"`
	Confidence       float64 `json:"confidence"`
	Rationale        string  `json:"rationale,omitempty"`
}

// DistributionStats aggregates the outcome of a preview.
type DistributionStats struct {
	TotalTasks       int            `json:"totalTasks"`
	TotalUsers       int            `json:"totalUsers"`
	WorkloadVariance float64        `json:"workloadVariance"`
	TasksPerUser     map[string]int `json:"tasksPerUser"`
}

// DistributionPreview is a time-boxed proposed distribution, polled until terminal.
type DistributionPreview struct {
	ID          string
	GroupID     string
	RequestedBy string
	Status      PreviewStatus
	Method      DistributionMethod
	Assignments []AssignmentRecord
	Stats       DistributionStats
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the preview is past its expiry at now.
func (p DistributionPreview) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// GenerateRequest asks for a distribution preview over a due-date window.
type GenerateRequest struct {
	GroupID   string
	StartDate time.Time
	EndDate   time.Time
	UserIDs   []string
	Method    DistributionMethod
	Reassign  bool
}

// Modification overrides the proposed assignee of one task when applying.
type Modification struct {
	TaskID            string
	NewAssignedUserID string
}

// ApplyResult summarizes an applied distribution.
type ApplyResult struct {
	AssignedCount int
	ModifiedCount int
	FinalStats    WorkloadMetrics
}
