package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"group-task-tracker/internal/distribution"
	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/workload"
)

// GenerateDistribution validates req, creates a preview and runs the requested
// proposer. Inline generation returns the terminal preview; async generation
// returns it in Processing and finishes on the usecase base context.
func (u *Usecase) GenerateDistribution(ctx context.Context, caller entities.Caller, req entities.GenerateRequest) (*entities.DistributionPreview, error) {
	if req.Method == "" {
		req.Method = entities.MethodRuleBased
	}
	if err := u.validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	reqCtx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.requireAdmin(reqCtx, req.GroupID, caller); err != nil {
		return nil, err
	}
	proposer, err := u.registry.Get(req.Method)
	if err != nil {
		return nil, err
	}
	members, err := u.repo.ListMembers(reqCtx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	selected, err := selectMembers(members, req.UserIDs)
	if err != nil {
		return nil, err
	}

	now := u.now()
	preview := entities.DistributionPreview{
		ID:          u.newID(),
		GroupID:     req.GroupID,
		RequestedBy: caller.UserID,
		Status:      entities.PreviewPending,
		Method:      req.Method,
		Assignments: []entities.AssignmentRecord{},
		Stats:       entities.DistributionStats{TasksPerUser: map[string]int{}},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(u.settings.PreviewTTL),
	}
	if err := u.repo.CreatePreview(reqCtx, preview); err != nil {
		return nil, fmt.Errorf("create preview: %w", err)
	}

	preview.Status = entities.PreviewProcessing
	preview.UpdatedAt = u.now()
	if err := u.repo.UpdatePreview(reqCtx, preview); err != nil {
		return nil, fmt.Errorf("start preview: %w", err)
	}
	u.metrics.PreviewStarted()
	u.log.Infow("preview generation started",
		"preview_id", preview.ID, "group_id", req.GroupID, "method", req.Method,
		"members", len(selected), "async", u.settings.AsyncGeneration)

	if u.settings.AsyncGeneration {
		u.generating.Add(1)
		go func(p entities.DistributionPreview) {
			defer u.generating.Done()
			u.generate(u.ctx, p, proposer, req, selected)
		}(preview)
		return &preview, nil
	}

	res := u.generate(ctx, preview, proposer, req, selected)
	return &res, nil
}

// GetPreview returns a preview snapshot. Expired previews are reported as not
// found even before the sweeper deletes them.
func (u *Usecase) GetPreview(ctx context.Context, caller entities.Caller, previewID string) (*entities.DistributionPreview, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	p, err := u.livePreview(ctx, previewID)
	if err != nil {
		return nil, err
	}
	if _, err := u.requireMember(ctx, p.GroupID, caller); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyDistribution writes the preview's assignments, overridden by mods, to the
// tasks. Every check runs before the first write.
func (u *Usecase) ApplyDistribution(ctx context.Context, caller entities.Caller, previewID string, mods []entities.Modification) (*entities.ApplyResult, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	p, err := u.livePreview(ctx, previewID)
	if err != nil {
		return nil, err
	}
	if _, err := u.requireAdmin(ctx, p.GroupID, caller); err != nil {
		return nil, err
	}
	if p.Status != entities.PreviewCompleted {
		return nil, fmt.Errorf("%w: status is %s", entities.ErrPreviewNotCompleted, p.Status)
	}

	members, err := u.repo.ListMembers(ctx, p.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	proposed := make(map[string]string, len(p.Assignments))
	ids := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		proposed[a.TaskID] = a.AssignedUserID
		ids = append(ids, a.TaskID)
	}

	overrides := make(map[string]string, len(mods))
	for _, m := range mods {
		if _, ok := proposed[m.TaskID]; !ok {
			return nil, fmt.Errorf("%w: task %q is not part of preview %s", entities.ErrInvalidArgument, m.TaskID, p.ID)
		}
		if !hasMember(members, m.NewAssignedUserID) {
			return nil, fmt.Errorf("%w: %q is not a group member", entities.ErrInvalidArgument, m.NewAssignedUserID)
		}
		overrides[m.TaskID] = m.NewAssignedUserID
	}

	existing, err := u.repo.FindTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			return nil, fmt.Errorf("%w: task %s no longer exists", entities.ErrInvalidOperation, id)
		}
	}

	res := &entities.ApplyResult{}
	for taskID, assignee := range overrides {
		if assignee != proposed[taskID] {
			res.ModifiedCount++
		}
	}

	for _, a := range p.Assignments {
		assignee := a.AssignedUserID
		if o, ok := overrides[a.TaskID]; ok {
			assignee = o
		}
		entry := entities.TaskHistory{
			ID:            u.newID(),
			TaskID:        a.TaskID,
			Action:        entities.HistoryDistributed,
			NewAssigneeID: assignee,
			ChangedBy:     caller.UserID,
			ChangedAt:     u.now(),
			Note:          "distribution preview " + p.ID,
		}
		if _, err := u.repo.AssignTask(ctx, a.TaskID, assignee, entry); err != nil {
			if errors.Is(err, entities.ErrTaskNotFound) {
				err = fmt.Errorf("%w: task %s no longer exists", entities.ErrInvalidOperation, a.TaskID)
			}
			u.log.Errorw("failed to apply assignment", "error", err, "preview_id", p.ID, "task_id", a.TaskID, "applied", res.AssignedCount)
			return nil, err
		}
		res.AssignedCount++
	}
	u.metrics.TasksApplied(res.AssignedCount)

	groupMembers, tasks, err := u.loadWorkload(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}
	res.FinalStats = workload.Calculate(p.GroupID, groupMembers, tasks, entities.RangeAll)

	u.log.Infow("distribution applied",
		"preview_id", p.ID, "group_id", p.GroupID, "assigned", res.AssignedCount,
		"modified", res.ModifiedCount, "variance", res.FinalStats.VariancePercent)
	return res, nil
}

func (u *Usecase) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", entities.ErrInvalidArgument)
	}
	if !end.After(start) {
		return entities.ErrDateRangeInvalid
	}
	maxSpan := time.Duration(u.settings.MaxRangeDays) * 24 * time.Hour
	if end.Sub(start) > maxSpan {
		return fmt.Errorf("%w: at most %d days", entities.ErrDateRangeTooLarge, u.settings.MaxRangeDays)
	}
	return nil
}

func (u *Usecase) livePreview(ctx context.Context, previewID string) (*entities.DistributionPreview, error) {
	if previewID == "" {
		return nil, entities.ErrPreviewNotFound
	}
	p, err := u.repo.GetPreview(ctx, previewID)
	if err != nil {
		return nil, err
	}
	if p.Expired(u.now()) {
		return nil, entities.ErrPreviewNotFound
	}
	return p, nil
}

// generate drives a Processing preview to Completed or Failed.
func (u *Usecase) generate(
	ctx context.Context,
	preview entities.DistributionPreview,
	proposer distribution.Proposer,
	req entities.GenerateRequest,
	selected []entities.Member,
) entities.DistributionPreview {
	start := time.Now()

	in, err := u.buildInput(ctx, req, selected)
	if err != nil {
		return u.finish(ctx, preview, nil, err, start)
	}
	records, err := proposer.Propose(ctx, in)
	if err != nil {
		return u.finish(ctx, preview, nil, err, start)
	}

	preview.Stats = distributionStats(selected, records)
	return u.finish(ctx, preview, records, nil, start)
}

func (u *Usecase) finish(
	ctx context.Context,
	preview entities.DistributionPreview,
	records []entities.AssignmentRecord,
	genErr error,
	start time.Time,
) entities.DistributionPreview {
	if genErr != nil {
		preview.Status = entities.PreviewFailed
		preview.Error = genErr.Error()
	} else {
		preview.Status = entities.PreviewCompleted
		preview.Assignments = records
	}
	preview.UpdatedAt = u.now()

	storeCtx, cancel := withTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()
	if err := u.repo.UpdatePreview(storeCtx, preview); err != nil {
		u.log.Errorw("failed to store preview result", "error", err, "preview_id", preview.ID, "status", preview.Status)
	}
	u.metrics.PreviewFinished(preview.Method, preview.Status)

	if genErr != nil {
		u.log.Warnw("preview generation failed",
			"preview_id", preview.ID, "method", preview.Method, "error", genErr,
			"elapsed_ms", time.Since(start).Milliseconds())
	} else {
		u.log.Infow("preview generation completed",
			"preview_id", preview.ID, "method", preview.Method, "tasks", len(records),
			"variance", preview.Stats.WorkloadVariance, "elapsed_ms", time.Since(start).Milliseconds())
	}
	return preview
}

// buildInput loads the candidate tasks in the window and each selected member's
// current load. Reassigned tasks are removed from their holder's baseline.
func (u *Usecase) buildInput(ctx context.Context, req entities.GenerateRequest, selected []entities.Member) (distribution.Input, error) {
	from, to := req.StartDate, req.EndDate
	window, err := u.repo.ListTasks(ctx, req.GroupID, entities.TaskFilter{DueFrom: &from, DueTo: &to})
	if err != nil {
		return distribution.Input{}, fmt.Errorf("list tasks: %w", err)
	}
	current, err := u.repo.ListTasks(ctx, req.GroupID, entities.TaskFilter{Statuses: workloadStatuses})
	if err != nil {
		return distribution.Input{}, fmt.Errorf("list workload: %w", err)
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, m := range selected {
		chosen[m.UserID] = struct{}{}
	}

	candidates := make([]entities.Task, 0, len(window))
	picked := make(map[string]struct{}, len(window))
	for _, t := range window {
		if t.Status == entities.TaskCompleted {
			continue
		}
		_, holderSelected := chosen[t.AssignedUserID]
		if !t.IsAssigned() || (req.Reassign && holderSelected && t.Status == entities.TaskPending) {
			candidates = append(candidates, t)
			picked[t.ID] = struct{}{}
		}
	}

	baseline := make([]entities.Task, 0, len(current))
	for _, t := range current {
		if _, ok := picked[t.ID]; !ok {
			baseline = append(baseline, t)
		}
	}
	metrics := workload.Calculate(req.GroupID, selected, baseline, entities.RangeAll)
	loads := make(map[string]entities.UserWorkload, len(metrics.Users))
	for _, uw := range metrics.Users {
		loads[uw.UserID] = uw
	}

	in := distribution.Input{
		Members: make([]distribution.MemberLoad, 0, len(selected)),
		Tasks:   candidates,
	}
	for _, m := range selected {
		l := loads[m.UserID]
		in.Members = append(in.Members, distribution.MemberLoad{
			Member:          m,
			TaskCount:       l.TaskCount,
			TotalDifficulty: l.TotalDifficulty,
		})
	}
	return in, nil
}

// selectMembers returns the requested members, or all of them when ids is empty.
func selectMembers(members []entities.Member, ids []string) ([]entities.Member, error) {
	if len(ids) == 0 {
		return members, nil
	}
	byID := make(map[string]entities.Member, len(members))
	for _, m := range members {
		byID[m.UserID] = m
	}
	res := make([]entities.Member, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: user %q is not a group member", entities.ErrInvalidArgument, id)
		}
		seen[id] = struct{}{}
		res = append(res, m)
	}
	return res, nil
}

// distributionStats summarizes records over every selected member. The
// variance uses the workload formula over the number of new tasks per member.
func distributionStats(selected []entities.Member, records []entities.AssignmentRecord) entities.DistributionStats {
	perUser := make(map[string]int, len(selected))
	for _, m := range selected {
		perUser[m.UserID] = 0
	}
	for _, r := range records {
		perUser[r.AssignedUserID]++
	}

	counts := make([]float64, 0, len(perUser))
	for _, n := range perUser {
		counts = append(counts, float64(n))
	}

	return entities.DistributionStats{
		TotalTasks:       len(records),
		TotalUsers:       len(selected),
		WorkloadVariance: workload.Round2(workload.VariancePercent(counts)),
		TasksPerUser:     perUser,
	}
}
