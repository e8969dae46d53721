// Package entities contains core business entities.
package entities

import (
	"fmt"
	"strings"
)

// DifficultyRange filters tasks by difficulty band.
type DifficultyRange string

const (
	// RangeAll keeps every difficulty.
	RangeAll DifficultyRange = "All"
	// RangeEasy keeps difficulties 1-3.
	RangeEasy DifficultyRange = "Easy"
	// RangeMedium keeps difficulties 4-6.
	RangeMedium DifficultyRange = "Medium"
	// RangeHard keeps difficulties 7-10.
	RangeHard DifficultyRange = "Hard"
)

// ParseDifficultyRange parses a case-insensitive range name; empty means All.
func ParseDifficultyRange(s string) (DifficultyRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return RangeAll, nil
	case "easy":
		return RangeEasy, nil
	case "medium":
		return RangeMedium, nil
	case "hard":
		return RangeHard, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty range %q", ErrInvalidArgument, s)
}

// Contains reports whether difficulty d falls into the range.
func (r DifficultyRange) Contains(d int) bool {
	switch r {
	case RangeEasy:
		return d >= 1 && d <= 3
	case RangeMedium:
		return d >= 4 && d <= 6
	case RangeHard:
		return d >= 7 && d <= 10
	default:
		return true
	}
}

// ThresholdColor classifies workload imbalance.
type ThresholdColor string

const (
	// ThresholdGreen means variance below 10%.
	ThresholdGreen ThresholdColor = "green"
	// ThresholdYellow means variance below 15%.
	ThresholdYellow ThresholdColor = "yellow"
	// ThresholdRed means variance of 15% or more.
	ThresholdRed ThresholdColor = "red"
)

// UserWorkload is a member's share of the current group workload.
type UserWorkload struct {
	UserID          string
	DisplayName     string
	TaskCount       int
	TotalDifficulty int
	Percentage      float64
}

// WorkloadMetrics is a computed snapshot of a group's workload balance.
type WorkloadMetrics struct {
	GroupID                  string
	Range                    DifficultyRange
	MemberCount              int
	TotalTasks               int
	TotalDifficulty          int
	AverageDifficultyPerUser float64
	MinDifficulty            int
	MaxDifficulty            int
	VariancePercent          float64
	ThresholdColor           ThresholdColor
	Users                    []UserWorkload
}

// WorkloadPreview pairs the current metrics with a hypothetical assignment outcome.
type WorkloadPreview struct {
	Current WorkloadMetrics
	Preview WorkloadMetrics
}

// HypotheticalAssignment describes a single task an admin is considering to assign.
type HypotheticalAssignment struct {
	GroupID    string
	AssignedTo string
	Difficulty int
}
