package distribution

import (
	"context"
	"testing"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/stretchr/testify/require"
)

var joined = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func load(userID, name string, joinOffset time.Duration, difficulty int) MemberLoad {
	return MemberLoad{
		Member: entities.Member{
			GroupID:     "g1",
			UserID:      userID,
			DisplayName: name,
			Role:        entities.RoleMember,
			JoinedAt:    joined.Add(joinOffset),
		},
		TotalDifficulty: difficulty,
	}
}

func newTask(id string, difficulty int) entities.Task {
	return entities.Task{
		ID:         id,
		GroupID:    "g1",
		Name:       "task " + id,
		Difficulty: difficulty,
		Status:     entities.TaskPending,
		DueDate:    joined.Add(24 * time.Hour),
	}
}

func totals(in Input, records []entities.AssignmentRecord) map[string]int {
	difficulty := make(map[string]int, len(in.Tasks))
	for _, t := range in.Tasks {
		difficulty[t.ID] = t.Difficulty
	}
	res := make(map[string]int, len(in.Members))
	for _, m := range in.Members {
		res[m.Member.UserID] = m.TotalDifficulty
	}
	for _, r := range records {
		res[r.AssignedUserID] += difficulty[r.TaskID]
	}
	return res
}

func maxTotal(m map[string]int) int {
	best := 0
	for _, v := range m {
		if v > best {
			best = v
		}
	}
	return best
}

func TestRuleBasedNoMembers(t *testing.T) {
	_, err := NewRuleBased().Propose(context.Background(), Input{Tasks: []entities.Task{newTask("t1", 3)}})
	require.ErrorIs(t, err, entities.ErrNoMembers)
	require.ErrorIs(t, err, entities.ErrInvalidOperation)
}

func TestRuleBasedNoTasks(t *testing.T) {
	records, err := NewRuleBased().Propose(context.Background(), Input{Members: []MemberLoad{load("a", "Ann", 0, 0)}})
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestRuleBasedThreeEqualMembersGetOneTaskEach(t *testing.T) {
	in := Input{
		Members: []MemberLoad{load("a", "Ann", 0, 0), load("b", "Bob", time.Hour, 0), load("c", "Cid", 2*time.Hour, 0)},
		Tasks:   []entities.Task{newTask("t1", 1), newTask("t5", 5), newTask("t3", 3)},
	}
	records, err := NewRuleBased().Propose(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, records, 3)

	perUser := map[string]int{}
	for _, r := range records {
		perUser[r.AssignedUserID]++
		require.Equal(t, 1.0, r.Confidence)
		require.Empty(t, r.Rationale)
	}
	require.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, perUser)
	require.Equal(t, "t5", records[0].TaskID)
	require.Equal(t, "a", records[0].AssignedUserID)
}

func TestRuleBasedAccountsForExistingLoad(t *testing.T) {
	in := Input{
		Members: []MemberLoad{load("a", "Ann", 0, 10), load("b", "Bob", time.Hour, 0)},
		Tasks:   []entities.Task{newTask("t1", 4)},
	}
	records, err := NewRuleBased().Propose(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "b", records[0].AssignedUserID)
	require.Equal(t, "Bob", records[0].AssignedUserName)
	require.Equal(t, map[string]int{"a": 10, "b": 4}, totals(in, records))
}

func TestRuleBasedTieGoesToEarliestJoined(t *testing.T) {
	in := Input{
		Members: []MemberLoad{load("z", "Zoe", time.Hour, 0), load("y", "Yan", 0, 0)},
		Tasks:   []entities.Task{newTask("t1", 2)},
	}
	records, err := NewRuleBased().Propose(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "y", records[0].AssignedUserID)
}

func TestRuleBasedDeterministic(t *testing.T) {
	in := Input{
		Members: []MemberLoad{load("a", "Ann", 0, 3), load("b", "Bob", 0, 3), load("c", "Cid", time.Minute, 1)},
		Tasks: []entities.Task{
			newTask("t1", 4), newTask("t2", 4), newTask("t3", 7),
			newTask("t4", 2), newTask("t5", 9), newTask("t6", 1),
		},
	}
	first, err := NewRuleBased().Propose(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewRuleBased().Propose(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRuleBasedLocallyOptimal(t *testing.T) {
	fixtures := []Input{
		{
			Members: []MemberLoad{load("a", "Ann", 0, 0), load("b", "Bob", time.Hour, 0)},
			Tasks:   []entities.Task{newTask("t1", 7), newTask("t2", 5), newTask("t3", 4), newTask("t4", 3), newTask("t5", 2), newTask("t6", 1)},
		},
		{
			Members: []MemberLoad{load("a", "Ann", 0, 10), load("b", "Bob", time.Hour, 0), load("c", "Cid", 2*time.Hour, 2)},
			Tasks:   []entities.Task{newTask("t1", 6), newTask("t2", 4), newTask("t3", 3)},
		},
		{
			Members: []MemberLoad{load("a", "Ann", 0, 0), load("b", "Bob", time.Hour, 0), load("c", "Cid", 2*time.Hour, 0)},
			Tasks:   []entities.Task{newTask("t1", 5), newTask("t2", 3), newTask("t3", 1)},
		},
	}

	for _, in := range fixtures {
		records, err := NewRuleBased().Propose(context.Background(), in)
		require.NoError(t, err)
		best := maxTotal(totals(in, records))

		// the average is fixed by the inputs, so max-minus-average only moves with max
		for i := range records {
			for _, m := range in.Members {
				if m.Member.UserID == records[i].AssignedUserID {
					continue
				}
				moved := append([]entities.AssignmentRecord(nil), records...)
				moved[i].AssignedUserID = m.Member.UserID
				require.GreaterOrEqual(t, maxTotal(totals(in, moved)), best)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewRuleBased(), nil)
	p, err := r.Get(entities.MethodRuleBased)
	require.NoError(t, err)
	require.Equal(t, entities.MethodRuleBased, p.Method())

	_, err = r.Get(entities.MethodAI)
	require.ErrorIs(t, err, entities.ErrMethodUnavailable)
	require.Equal(t, []entities.DistributionMethod{entities.MethodRuleBased}, r.Methods())
}
