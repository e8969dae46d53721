// Package workload computes per-member workload balance for a group.
package workload

import (
	"math"
	"sort"

	"group-task-tracker/internal/entities"
)

const (
	greenLimit  = 10.0
	yellowLimit = 15.0
)

// Calculate builds a workload snapshot of the members over the tasks that count as
// current load (Pending or InProgress) and fall into rng. Tasks assigned to users
// outside members are skipped.
func Calculate(groupID string, members []entities.Member, tasks []entities.Task, rng entities.DifficultyRange) entities.WorkloadMetrics {
	if rng == "" {
		rng = entities.RangeAll
	}

	index := make(map[string]int, len(members))
	users := make([]entities.UserWorkload, len(members))
	for i, m := range members {
		index[m.UserID] = i
		users[i] = entities.UserWorkload{UserID: m.UserID, DisplayName: m.DisplayName}
	}

	for _, t := range tasks {
		if !t.Status.CountsTowardWorkload() || !rng.Contains(t.Difficulty) || !t.IsAssigned() {
			continue
		}
		i, ok := index[t.AssignedUserID]
		if !ok {
			continue
		}
		users[i].TaskCount++
		users[i].TotalDifficulty += t.Difficulty
	}

	res := entities.WorkloadMetrics{
		GroupID:     groupID,
		Range:       rng,
		MemberCount: len(members),
		Users:       users,
	}

	totals := make([]float64, len(users))
	for i, u := range users {
		res.TotalTasks += u.TaskCount
		res.TotalDifficulty += u.TotalDifficulty
		totals[i] = float64(u.TotalDifficulty)
		if i == 0 || u.TotalDifficulty < res.MinDifficulty {
			res.MinDifficulty = u.TotalDifficulty
		}
		if u.TotalDifficulty > res.MaxDifficulty {
			res.MaxDifficulty = u.TotalDifficulty
		}
	}

	if len(users) > 0 {
		res.AverageDifficultyPerUser = Round2(float64(res.TotalDifficulty) / float64(len(users)))
	}

	variance := VariancePercent(totals)
	res.VariancePercent = Round2(variance)
	res.ThresholdColor = Threshold(variance)

	for i := range users {
		if res.TotalDifficulty > 0 {
			users[i].Percentage = Round2(float64(users[i].TotalDifficulty) / float64(res.TotalDifficulty) * 100)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].DisplayName < users[j].DisplayName
	})

	return res
}

// WithHypothetical returns tasks extended by one pending task of the given difficulty
// assigned to assignedTo. The input slice is not modified.
func WithHypothetical(tasks []entities.Task, assignedTo string, difficulty int) []entities.Task {
	out := make([]entities.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, entities.Task{
		ID:             "hypothetical",
		Name:           "hypothetical",
		Difficulty:     difficulty,
		Status:         entities.TaskPending,
		AssignedUserID: assignedTo,
	})
}

// VariancePercent is ((max - avg) / avg) * 100 over values, 0 for an empty set or a
// zero average. Negative results from float drift are clamped to 0.
func VariancePercent(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	maxVal := values[0]
	for _, v := range values {
		sum += v
		if v > maxVal {
			maxVal = v
		}
	}
	avg := sum / float64(len(values))
	if avg == 0 {
		return 0
	}
	v := (maxVal - avg) / avg * 100
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Threshold maps a variance percentage to its color.
func Threshold(variance float64) entities.ThresholdColor {
	switch {
	case variance < greenLimit:
		return entities.ThresholdGreen
	case variance < yellowLimit:
		return entities.ThresholdYellow
	default:
		return entities.ThresholdRed
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
