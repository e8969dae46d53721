package distribution

import (
	"context"
	"sort"

	"group-task-tracker/internal/entities"
)

// RuleBased assigns largest tasks first to the least loaded member.
type RuleBased struct{}

var _ Proposer = RuleBased{}

// NewRuleBased constructs the deterministic greedy distributor.
func NewRuleBased() RuleBased {
	return RuleBased{}
}

// Method implements Proposer.
func (RuleBased) Method() entities.DistributionMethod {
	return entities.MethodRuleBased
}

// Propose starts every member at its current difficulty total, walks tasks by
// difficulty descending and gives each to the member with the lowest running
// total. Ties go to the member who joined first.
func (RuleBased) Propose(_ context.Context, in Input) ([]entities.AssignmentRecord, error) {
	if len(in.Members) == 0 {
		return nil, entities.ErrNoMembers
	}
	if len(in.Tasks) == 0 {
		return []entities.AssignmentRecord{}, nil
	}

	candidates := sortedMembers(in.Members)
	running := make([]int, len(candidates))
	for i, c := range candidates {
		running[i] = c.TotalDifficulty
	}

	tasks := append([]entities.Task(nil), in.Tasks...)
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Difficulty != b.Difficulty {
			return a.Difficulty > b.Difficulty
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.ID < b.ID
	})

	records := make([]entities.AssignmentRecord, 0, len(tasks))
	for _, t := range tasks {
		best := 0
		for i := 1; i < len(running); i++ {
			if running[i] < running[best] {
				best = i
			}
		}
		running[best] += t.Difficulty
		m := candidates[best].Member
		records = append(records, entities.AssignmentRecord{
			TaskID:           t.ID,
			TaskName:         t.Name,
			AssignedUserID:   m.UserID,
			AssignedUserName: m.DisplayName,
			Confidence:       1.0,
		})
	}
	return records, nil
}
