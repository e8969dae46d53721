// Package memory implements the repository in process memory. It backs
// local runs and tests that do not need Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Store keeps groups, members, tasks, history and previews in concurrent maps.
type Store struct {
	log *zap.SugaredLogger

	groups   *xsync.Map[string, entities.Group]
	members  *xsync.Map[memberKey, entities.Member]
	tasks    *xsync.Map[string, entities.Task]
	history  *xsync.Map[string, []entities.TaskHistory]
	previews *xsync.Map[string, entities.DistributionPreview]

	// taskMu serializes writes that touch a task and its history together.
	taskMu sync.Mutex
}

type memberKey struct {
	groupID string
	userID  string
}

// New creates an empty Store.
func New(log *zap.SugaredLogger) *Store {
	return &Store{
		log:      log.Named("repo.memory"),
		groups:   xsync.NewMap[string, entities.Group](),
		members:  xsync.NewMap[memberKey, entities.Member](),
		tasks:    xsync.NewMap[string, entities.Task](),
		history:  xsync.NewMap[string, []entities.TaskHistory](),
		previews: xsync.NewMap[string, entities.DistributionPreview](),
	}
}

// OnStart is a no-op.
func (s *Store) OnStart(_ context.Context) error {
	s.log.Infow("memory store ready")
	return nil
}

// OnStop is a no-op.
func (s *Store) OnStop(_ context.Context) error {
	return nil
}

// CreateGroup stores a group and its creator membership.
func (s *Store) CreateGroup(_ context.Context, group entities.Group, creator entities.Member) (*entities.Group, error) {
	if _, loaded := s.groups.LoadOrStore(group.ID, group); loaded {
		return nil, fmt.Errorf("%w: group %s already exists", entities.ErrInvalidOperation, group.ID)
	}
	creator.GroupID = group.ID
	s.members.Store(memberKey{group.ID, creator.UserID}, creator)
	return &group, nil
}

// GetGroup fetches a group by id.
func (s *Store) GetGroup(_ context.Context, groupID string) (*entities.Group, error) {
	g, ok := s.groups.Load(groupID)
	if !ok {
		return nil, entities.ErrGroupNotFound
	}
	return &g, nil
}

// AddMember stores a membership unless it already exists.
func (s *Store) AddMember(_ context.Context, member entities.Member) (*entities.Member, error) {
	if _, ok := s.groups.Load(member.GroupID); !ok {
		return nil, entities.ErrGroupNotFound
	}
	if _, loaded := s.members.LoadOrStore(memberKey{member.GroupID, member.UserID}, member); loaded {
		return nil, entities.ErrMemberExists
	}
	return &member, nil
}

// GetMember fetches one membership.
func (s *Store) GetMember(_ context.Context, groupID, userID string) (*entities.Member, error) {
	m, ok := s.members.Load(memberKey{groupID, userID})
	if !ok {
		return nil, entities.ErrMemberNotFound
	}
	return &m, nil
}

// ListMembers returns group members ordered by join time.
func (s *Store) ListMembers(_ context.Context, groupID string) ([]entities.Member, error) {
	res := make([]entities.Member, 0)
	s.members.Range(func(k memberKey, m entities.Member) bool {
		if k.groupID == groupID {
			res = append(res, m)
		}
		return true
	})
	sort.Slice(res, func(i, j int) bool {
		if !res[i].JoinedAt.Equal(res[j].JoinedAt) {
			return res[i].JoinedAt.Before(res[j].JoinedAt)
		}
		return res[i].UserID < res[j].UserID
	})
	return res, nil
}

// CreateTask stores a task and its initial history.
func (s *Store) CreateTask(_ context.Context, task entities.Task, history []entities.TaskHistory) (*entities.Task, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	if _, loaded := s.tasks.LoadOrStore(task.ID, task); loaded {
		return nil, fmt.Errorf("%w: task %s already exists", entities.ErrInvalidOperation, task.ID)
	}
	for _, h := range history {
		s.appendHistory(h)
	}
	return &task, nil
}

// GetTask fetches a task by id.
func (s *Store) GetTask(_ context.Context, taskID string) (*entities.Task, error) {
	t, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return &t, nil
}

// FindTasks returns the subset of taskIDs that exist, keyed by id.
func (s *Store) FindTasks(_ context.Context, taskIDs []string) (map[string]entities.Task, error) {
	res := make(map[string]entities.Task, len(taskIDs))
	for _, id := range taskIDs {
		if t, ok := s.tasks.Load(id); ok {
			res[id] = t
		}
	}
	return res, nil
}

// ListTasks returns group tasks matching filter ordered by due date.
func (s *Store) ListTasks(_ context.Context, groupID string, filter entities.TaskFilter) ([]entities.Task, error) {
	res := make([]entities.Task, 0)
	s.tasks.Range(func(_ string, t entities.Task) bool {
		if t.GroupID == groupID && matches(t, filter) {
			res = append(res, t)
		}
		return true
	})
	sort.Slice(res, func(i, j int) bool {
		if !res[i].DueDate.Equal(res[j].DueDate) {
			return res[i].DueDate.Before(res[j].DueDate)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func matches(t entities.Task, f entities.TaskFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if t.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.AssignedUserID != "" && t.AssignedUserID != f.AssignedUserID {
		return false
	}
	if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
		return false
	}
	if f.DueTo != nil && t.DueDate.After(*f.DueTo) {
		return false
	}
	return true
}

// UpdateTaskStatus moves a task from one status to another and records it.
func (s *Store) UpdateTaskStatus(_ context.Context, taskID string, from, to entities.TaskStatus, entry entities.TaskHistory) (*entities.Task, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	t, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	if t.Status != from {
		return nil, fmt.Errorf("%w: task is %s, not %s", entities.ErrInvalidOperation, t.Status, from)
	}
	t.Status = to
	t.UpdatedAt = entry.ChangedAt
	s.tasks.Store(taskID, t)
	s.appendHistory(entry)
	return &t, nil
}

// AssignTask sets the task assignee and appends entry.
func (s *Store) AssignTask(_ context.Context, taskID, assigneeID string, entry entities.TaskHistory) (*entities.Task, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	t, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	entry.PreviousAssigneeID = t.AssignedUserID
	t.AssignedUserID = assigneeID
	t.UpdatedAt = entry.ChangedAt
	s.tasks.Store(taskID, t)
	s.appendHistory(entry)
	return &t, nil
}

// TaskHistory returns history entries of a task, newest first.
func (s *Store) TaskHistory(_ context.Context, taskID string) ([]entities.TaskHistory, error) {
	entries, _ := s.history.Load(taskID)
	res := make([]entities.TaskHistory, len(entries))
	copy(res, entries)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].ChangedAt.After(res[j].ChangedAt)
	})
	return res, nil
}

func (s *Store) appendHistory(h entities.TaskHistory) {
	s.history.Compute(h.TaskID, func(old []entities.TaskHistory, _ bool) ([]entities.TaskHistory, xsync.ComputeOp) {
		next := make([]entities.TaskHistory, 0, len(old)+1)
		next = append(next, h)
		next = append(next, old...)
		return next, xsync.UpdateOp
	})
}

// CreatePreview stores a new preview.
func (s *Store) CreatePreview(_ context.Context, preview entities.DistributionPreview) error {
	if _, loaded := s.previews.LoadOrStore(preview.ID, clonePreview(preview)); loaded {
		return fmt.Errorf("%w: preview %s already exists", entities.ErrInvalidOperation, preview.ID)
	}
	return nil
}

// UpdatePreview stores a forward status transition with its payload.
func (s *Store) UpdatePreview(_ context.Context, preview entities.DistributionPreview) error {
	var err error
	s.previews.Compute(preview.ID, func(old entities.DistributionPreview, loaded bool) (entities.DistributionPreview, xsync.ComputeOp) {
		if !loaded {
			err = entities.ErrPreviewNotFound
			return old, xsync.CancelOp
		}
		if !old.Status.CanTransitionTo(preview.Status) {
			err = fmt.Errorf("%w: preview %s cannot move from %s to %s", entities.ErrInvalidOperation, preview.ID, old.Status, preview.Status)
			return old, xsync.CancelOp
		}
		next := clonePreview(preview)
		next.CreatedAt = old.CreatedAt
		next.ExpiresAt = old.ExpiresAt
		return next, xsync.UpdateOp
	})
	return err
}

// GetPreview fetches a copy of a preview regardless of expiry.
func (s *Store) GetPreview(_ context.Context, previewID string) (*entities.DistributionPreview, error) {
	p, ok := s.previews.Load(previewID)
	if !ok {
		return nil, entities.ErrPreviewNotFound
	}
	res := clonePreview(p)
	return &res, nil
}

// DeleteExpiredPreviews removes previews whose expiry is at or before now.
func (s *Store) DeleteExpiredPreviews(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	s.previews.Range(func(id string, p entities.DistributionPreview) bool {
		if p.Expired(now) {
			s.previews.Delete(id)
			deleted++
		}
		return true
	})
	return deleted, nil
}

func clonePreview(p entities.DistributionPreview) entities.DistributionPreview {
	if p.Assignments != nil {
		p.Assignments = append([]entities.AssignmentRecord(nil), p.Assignments...)
	}
	if p.Stats.TasksPerUser != nil {
		perUser := make(map[string]int, len(p.Stats.TasksPerUser))
		for k, v := range p.Stats.TasksPerUser {
			perUser[k] = v
		}
		p.Stats.TasksPerUser = perUser
	}
	return p
}
