package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"group-task-tracker/internal/distribution"
	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingProposer struct{}

func (failingProposer) Method() entities.DistributionMethod { return entities.MethodAI }

func (failingProposer) Propose(context.Context, distribution.Input) ([]entities.AssignmentRecord, error) {
	return nil, errors.Join(entities.ErrAIDistribution, errors.New("model unavailable"))
}

type blockingProposer struct {
	release chan struct{}
}

func (b blockingProposer) Method() entities.DistributionMethod { return entities.MethodRuleBased }

func (b blockingProposer) Propose(ctx context.Context, in distribution.Input) ([]entities.AssignmentRecord, error) {
	<-b.release
	return distribution.NewRuleBased().Propose(ctx, in)
}

type fixture struct {
	uc    *Usecase
	store *memory.Store
	clock *testClock
	group *entities.Group
}

var (
	bob = entities.Caller{UserID: "bob", Name: "Bob"}
	cid = entities.Caller{UserID: "cid", Name: "Cid"}
)

func newFixture(t *testing.T, settings Settings, proposers ...distribution.Proposer) *fixture {
	t.Helper()
	if len(proposers) == 0 {
		proposers = []distribution.Proposer{distribution.NewRuleBased()}
	}
	if settings.Timeout == 0 {
		settings.Timeout = time.Second
	}
	clock := &testClock{now: fixedNow}
	store := memory.New(zap.NewNop().Sugar())
	uc := New(zap.NewNop().Sugar(), context.Background(), store, distribution.NewRegistry(proposers...), settings,
		WithClock(clock.Now))

	ctx := context.Background()
	group, err := uc.CreateGroup(ctx, admin, "Flat 4B")
	require.NoError(t, err)

	for _, c := range []entities.Caller{bob, cid} {
		clock.Advance(time.Minute)
		_, err := uc.AddMember(ctx, admin, entities.Member{GroupID: group.ID, UserID: c.UserID, DisplayName: c.Name})
		require.NoError(t, err)
	}
	return &fixture{uc: uc, store: store, clock: clock, group: group}
}

func (f *fixture) task(t *testing.T, name string, difficulty int, due time.Time, assignee string) *entities.Task {
	t.Helper()
	task, err := f.uc.CreateTask(context.Background(), admin, entities.Task{
		GroupID: f.group.ID, Name: name, Difficulty: difficulty, DueDate: due, AssignedUserID: assignee,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) week() entities.GenerateRequest {
	return entities.GenerateRequest{
		GroupID:   f.group.ID,
		StartDate: fixedNow,
		EndDate:   fixedNow.AddDate(0, 0, 7),
	}
}

func TestDistribution_EqualMembersBalanced(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	for name, d := range map[string]int{"dishes": 5, "laundry": 3, "plants": 1} {
		f.task(t, name, d, fixedNow.Add(48*time.Hour), "")
	}

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)
	require.Equal(t, entities.PreviewCompleted, p.Status)
	require.Equal(t, entities.MethodRuleBased, p.Method)
	require.Len(t, p.Assignments, 3)
	require.Equal(t, 3, p.Stats.TotalTasks)
	require.Equal(t, 3, p.Stats.TotalUsers)
	require.Equal(t, 0.0, p.Stats.WorkloadVariance)
	require.Equal(t, map[string]int{"admin": 1, "bob": 1, "cid": 1}, p.Stats.TasksPerUser)
	require.Equal(t, fixedNow.Add(2*time.Minute).Add(24*time.Hour), p.ExpiresAt)

	stored, err := f.uc.GetPreview(ctx, bob, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Assignments, stored.Assignments)
}

func TestDistribution_ApplyGoesToLightestMember(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	f.task(t, "deep clean", 10, fixedNow.AddDate(0, 1, 0), "admin")
	trash := f.task(t, "trash", 4, fixedNow.Add(24*time.Hour), "")

	req := f.week()
	req.UserIDs = []string{"admin", "bob"}
	p, err := f.uc.GenerateDistribution(ctx, admin, req)
	require.NoError(t, err)
	require.Len(t, p.Assignments, 1)
	require.Equal(t, "bob", p.Assignments[0].AssignedUserID)

	res, err := f.uc.ApplyDistribution(ctx, admin, p.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.AssignedCount)
	require.Equal(t, 0, res.ModifiedCount)

	got, err := f.store.GetTask(ctx, trash.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", got.AssignedUserID)

	history, err := f.uc.TaskHistory(ctx, admin, trash.ID)
	require.NoError(t, err)
	require.Equal(t, entities.HistoryDistributed, history[0].Action)
	require.Equal(t, "bob", history[0].NewAssigneeID)

	// cid is a member with no load, so the group snapshot is 10/4/0
	require.Equal(t, 14, res.FinalStats.TotalDifficulty)
	require.Equal(t, 4.67, res.FinalStats.AverageDifficultyPerUser)
	require.Equal(t, 114.29, res.FinalStats.VariancePercent)
	require.Equal(t, entities.ThresholdRed, res.FinalStats.ThresholdColor)
}

func TestDistribution_ApplyTwoMemberVariance(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()

	// only admin and bob are in the group for this one
	solo := New(zap.NewNop().Sugar(), context.Background(), f.store, distribution.NewRegistry(distribution.NewRuleBased()),
		Settings{Timeout: time.Second}, WithClock(f.clock.Now))
	group, err := solo.CreateGroup(ctx, admin, "Duo")
	require.NoError(t, err)
	_, err = solo.AddMember(ctx, admin, entities.Member{GroupID: group.ID, UserID: "bob"})
	require.NoError(t, err)
	_, err = solo.CreateTask(ctx, admin, entities.Task{GroupID: group.ID, Name: "deep clean", Difficulty: 10, DueDate: fixedNow.AddDate(0, 1, 0), AssignedUserID: "admin"})
	require.NoError(t, err)
	_, err = solo.CreateTask(ctx, admin, entities.Task{GroupID: group.ID, Name: "trash", Difficulty: 4, DueDate: fixedNow.Add(24 * time.Hour)})
	require.NoError(t, err)

	p, err := solo.GenerateDistribution(ctx, admin, entities.GenerateRequest{GroupID: group.ID, StartDate: fixedNow, EndDate: fixedNow.AddDate(0, 0, 7)})
	require.NoError(t, err)
	res, err := solo.ApplyDistribution(ctx, admin, p.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 42.86, res.FinalStats.VariancePercent)
	require.Equal(t, entities.ThresholdRed, res.FinalStats.ThresholdColor)
}

func TestDistribution_ApplyWithModifications(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	a := f.task(t, "a", 5, fixedNow.Add(time.Hour), "")
	b := f.task(t, "b", 3, fixedNow.Add(2*time.Hour), "")

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)

	proposed := map[string]string{}
	for _, r := range p.Assignments {
		proposed[r.TaskID] = r.AssignedUserID
	}

	mods := []entities.Modification{
		{TaskID: a.ID, NewAssignedUserID: "cid"},
		{TaskID: b.ID, NewAssignedUserID: proposed[b.ID]},
	}
	res, err := f.uc.ApplyDistribution(ctx, admin, p.ID, mods)
	require.NoError(t, err)
	require.Equal(t, "admin", proposed[a.ID])
	require.Equal(t, 2, res.AssignedCount)
	require.Equal(t, 1, res.ModifiedCount)

	got, err := f.store.GetTask(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "cid", got.AssignedUserID)
}

func TestDistribution_ApplyRejectsBadModifications(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	a := f.task(t, "a", 5, fixedNow.Add(time.Hour), "")

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)

	_, err = f.uc.ApplyDistribution(ctx, admin, p.ID, []entities.Modification{{TaskID: "other", NewAssignedUserID: "bob"}})
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = f.uc.ApplyDistribution(ctx, admin, p.ID, []entities.Modification{{TaskID: a.ID, NewAssignedUserID: "mallory"}})
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = f.uc.ApplyDistribution(ctx, bob, p.ID, nil)
	require.ErrorIs(t, err, entities.ErrForbidden)

	got, err := f.store.GetTask(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.IsAssigned())
}

func TestDistribution_ExpiredPreviewNotFound(t *testing.T) {
	f := newFixture(t, Settings{PreviewTTL: time.Hour})
	ctx := context.Background()
	f.task(t, "a", 5, fixedNow.Add(time.Hour), "")

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.uc.GetPreview(ctx, admin, p.ID)
	require.ErrorIs(t, err, entities.ErrPreviewNotFound)
	_, err = f.uc.ApplyDistribution(ctx, admin, p.ID, nil)
	require.ErrorIs(t, err, entities.ErrPreviewNotFound)

	n, err := f.uc.SweepExpiredPreviews(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = f.store.GetPreview(ctx, p.ID)
	require.ErrorIs(t, err, entities.ErrPreviewNotFound)
}

func TestDistribution_UnknownPreview(t *testing.T) {
	f := newFixture(t, Settings{})
	_, err := f.uc.GetPreview(context.Background(), admin, "nope")
	require.ErrorIs(t, err, entities.ErrPreviewNotFound)
}

func TestDistribution_FailedProposerMarksPreviewFailed(t *testing.T) {
	f := newFixture(t, Settings{}, distribution.NewRuleBased(), failingProposer{})
	ctx := context.Background()
	f.task(t, "a", 5, fixedNow.Add(time.Hour), "")

	req := f.week()
	req.Method = entities.MethodAI
	p, err := f.uc.GenerateDistribution(ctx, admin, req)
	require.NoError(t, err)
	require.Equal(t, entities.PreviewFailed, p.Status)
	require.Contains(t, p.Error, "model unavailable")
	require.Empty(t, p.Assignments)

	_, err = f.uc.ApplyDistribution(ctx, admin, p.ID, nil)
	require.ErrorIs(t, err, entities.ErrPreviewNotCompleted)
}

func TestDistribution_MissingTaskFailsBeforeWrites(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	a := f.task(t, "a", 5, fixedNow.Add(time.Hour), "")

	tampered := entities.DistributionPreview{
		ID:        "tampered",
		GroupID:   f.group.ID,
		Status:    entities.PreviewProcessing,
		ExpiresAt: fixedNow.Add(time.Hour),
	}
	require.NoError(t, f.store.CreatePreview(ctx, tampered))
	tampered.Status = entities.PreviewCompleted
	tampered.Assignments = []entities.AssignmentRecord{
		{TaskID: a.ID, AssignedUserID: "bob"},
		{TaskID: "ghost", AssignedUserID: "cid"},
	}
	require.NoError(t, f.store.UpdatePreview(ctx, tampered))

	_, err := f.uc.ApplyDistribution(ctx, admin, "tampered", nil)
	require.ErrorIs(t, err, entities.ErrInvalidOperation)

	got, err := f.store.GetTask(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.IsAssigned())
}

func TestDistribution_ReassignPendingTasks(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	held := f.task(t, "held", 6, fixedNow.Add(time.Hour), "admin")
	f.task(t, "open", 2, fixedNow.Add(2*time.Hour), "")

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)
	require.Len(t, p.Assignments, 1)

	req := f.week()
	req.Reassign = true
	p, err = f.uc.GenerateDistribution(ctx, admin, req)
	require.NoError(t, err)
	require.Len(t, p.Assignments, 2)

	ids := map[string]bool{}
	for _, r := range p.Assignments {
		ids[r.TaskID] = true
	}
	require.True(t, ids[held.ID])
}

func TestDistribution_CompletedAndOutOfWindowTasksIgnored(t *testing.T) {
	f := newFixture(t, Settings{})
	ctx := context.Background()
	done := f.task(t, "done", 3, fixedNow.Add(time.Hour), "bob")
	f.task(t, "later", 3, fixedNow.AddDate(0, 0, 20), "")

	_, err := f.uc.UpdateTaskStatus(ctx, bob, done.ID, entities.TaskInProgress)
	require.NoError(t, err)
	_, err = f.uc.UpdateTaskStatus(ctx, bob, done.ID, entities.TaskPendingApproval)
	require.NoError(t, err)
	_, err = f.uc.UpdateTaskStatus(ctx, admin, done.ID, entities.TaskCompleted)
	require.NoError(t, err)

	req := f.week()
	req.Reassign = true
	p, err := f.uc.GenerateDistribution(ctx, admin, req)
	require.NoError(t, err)
	require.Equal(t, entities.PreviewCompleted, p.Status)
	require.Empty(t, p.Assignments)
	require.Equal(t, 0, p.Stats.TotalTasks)
}

func TestDistribution_SelectedUsersMustBeMembers(t *testing.T) {
	f := newFixture(t, Settings{})
	req := f.week()
	req.UserIDs = []string{"bob", "mallory"}
	_, err := f.uc.GenerateDistribution(context.Background(), admin, req)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestDistribution_OnlyAdminsGenerate(t *testing.T) {
	f := newFixture(t, Settings{})
	_, err := f.uc.GenerateDistribution(context.Background(), bob, f.week())
	require.ErrorIs(t, err, entities.ErrForbidden)
}

func TestDistribution_RangeBoundaries(t *testing.T) {
	f := newFixture(t, Settings{})
	req := f.week()
	req.EndDate = req.StartDate.AddDate(0, 0, 30)
	_, err := f.uc.GenerateDistribution(context.Background(), admin, req)
	require.NoError(t, err)

	req.EndDate = req.StartDate.AddDate(0, 0, 31)
	_, err = f.uc.GenerateDistribution(context.Background(), admin, req)
	require.ErrorIs(t, err, entities.ErrDateRangeTooLarge)
}

func TestDistribution_AsyncGeneration(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, Settings{AsyncGeneration: true}, blockingProposer{release: release})
	ctx := context.Background()
	f.task(t, "a", 5, fixedNow.Add(time.Hour), "")

	p, err := f.uc.GenerateDistribution(ctx, admin, f.week())
	require.NoError(t, err)
	require.Equal(t, entities.PreviewProcessing, p.Status)

	polled, err := f.uc.GetPreview(ctx, admin, p.ID)
	require.NoError(t, err)
	require.Equal(t, entities.PreviewProcessing, polled.Status)

	close(release)
	f.uc.Wait()

	polled, err = f.uc.GetPreview(ctx, admin, p.ID)
	require.NoError(t, err)
	require.Equal(t, entities.PreviewCompleted, polled.Status)
	require.Len(t, polled.Assignments, 1)
}
