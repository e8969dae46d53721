package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"group-task-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
)

const (
	taskColumns = `id, group_id, name, description, difficulty, status, COALESCE(assigned_user_id, ''), due_date, created_by, created_at, updated_at`

	insertTaskQuery = `
INSERT INTO tasks(id, group_id, name, description, difficulty, status, assigned_user_id, due_date, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11)`
	insertHistoryQuery = `
INSERT INTO task_history(id, task_id, action, previous_assignee_id, new_assignee_id, previous_status, new_status, changed_by, changed_at, note)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),$8,$9,$10)`
	selectTaskQuery          = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	selectTaskForUpdateQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1 FOR UPDATE`
	selectTasksByIDsQuery    = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ANY($1::text[])`
	updateTaskStatusQuery    = `UPDATE tasks SET status=$2, updated_at=$3 WHERE id=$1`
	updateTaskAssigneeQuery  = `UPDATE tasks SET assigned_user_id=NULLIF($2,''), updated_at=$3 WHERE id=$1`
	selectHistoryQuery       = `
SELECT id, task_id, action, COALESCE(previous_assignee_id, ''), COALESCE(new_assignee_id, ''),
       COALESCE(previous_status, ''), COALESCE(new_status, ''), changed_by, changed_at, note
FROM task_history WHERE task_id=$1
ORDER BY changed_at DESC, id DESC`
)

// CreateTask inserts a task and its initial history entries.
func (p *Postgres) CreateTask(ctx context.Context, task entities.Task, history []entities.TaskHistory) (*entities.Task, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertTaskQuery,
		task.ID, task.GroupID, task.Name, task.Description, task.Difficulty, task.Status,
		task.AssignedUserID, task.DueDate, task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	); err != nil {
		p.log.Errorw("failed to insert task", "error", err, "task_id", task.ID)
		return nil, fmt.Errorf("insert task: %w", err)
	}
	for _, h := range history {
		if err := insertHistory(ctx, tx, h); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("task created", "task_id", task.ID, "group_id", task.GroupID, "difficulty", task.Difficulty)
	return &task, nil
}

// GetTask fetches a task by id.
func (p *Postgres) GetTask(ctx context.Context, taskID string) (*entities.Task, error) {
	t, err := scanTask(p.db.QueryRow(ctx, selectTaskQuery, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// FindTasks returns the subset of taskIDs that exist, keyed by id.
func (p *Postgres) FindTasks(ctx context.Context, taskIDs []string) (map[string]entities.Task, error) {
	res := make(map[string]entities.Task, len(taskIDs))
	if len(taskIDs) == 0 {
		return res, nil
	}

	rows, err := p.db.Query(ctx, selectTasksByIDsQuery, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		res[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return res, nil
}

// ListTasks returns group tasks matching filter ordered by due date.
func (p *Postgres) ListTasks(ctx context.Context, groupID string, filter entities.TaskFilter) ([]entities.Task, error) {
	query, args := buildListTasksQuery(groupID, filter)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]entities.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func buildListTasksQuery(groupID string, filter entities.TaskFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE group_id=$1`)
	args := []any{groupID}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		fmt.Fprintf(&sb, " AND status = ANY($%d::text[])", len(args))
	}
	if filter.AssignedUserID != "" {
		args = append(args, filter.AssignedUserID)
		fmt.Fprintf(&sb, " AND assigned_user_id=$%d", len(args))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		fmt.Fprintf(&sb, " AND due_date >= $%d", len(args))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		fmt.Fprintf(&sb, " AND due_date <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY due_date, id")
	return sb.String(), args
}

// UpdateTaskStatus moves a task from one status to another and records it.
// A task no longer in from yields ErrInvalidOperation.
func (p *Postgres) UpdateTaskStatus(ctx context.Context, taskID string, from, to entities.TaskStatus, entry entities.TaskHistory) (*entities.Task, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateQuery, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t.Status != from {
		return nil, fmt.Errorf("%w: task is %s, not %s", entities.ErrInvalidOperation, t.Status, from)
	}

	if _, err := tx.Exec(ctx, updateTaskStatusQuery, taskID, to, entry.ChangedAt); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if err := insertHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	t.Status = to
	t.UpdatedAt = entry.ChangedAt
	p.log.Infow("task status changed", "task_id", taskID, "from", from, "to", to)
	return &t, nil
}

// AssignTask sets the task assignee and appends entry in one transaction.
func (p *Postgres) AssignTask(ctx context.Context, taskID, assigneeID string, entry entities.TaskHistory) (*entities.Task, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateQuery, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if _, err := tx.Exec(ctx, updateTaskAssigneeQuery, taskID, assigneeID, entry.ChangedAt); err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}
	entry.PreviousAssigneeID = t.AssignedUserID
	if err := insertHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	t.AssignedUserID = assigneeID
	t.UpdatedAt = entry.ChangedAt
	return &t, nil
}

// TaskHistory returns history entries of a task, newest first.
func (p *Postgres) TaskHistory(ctx context.Context, taskID string) ([]entities.TaskHistory, error) {
	rows, err := p.db.Query(ctx, selectHistoryQuery, taskID)
	if err != nil {
		return nil, fmt.Errorf("task history: %w", err)
	}
	defer rows.Close()

	res := make([]entities.TaskHistory, 0)
	for rows.Next() {
		var h entities.TaskHistory
		if err := rows.Scan(&h.ID, &h.TaskID, &h.Action, &h.PreviousAssigneeID, &h.NewAssigneeID,
			&h.PreviousStatus, &h.NewStatus, &h.ChangedBy, &h.ChangedAt, &h.Note); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		res = append(res, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return res, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, h entities.TaskHistory) error {
	if _, err := tx.Exec(ctx, insertHistoryQuery,
		h.ID, h.TaskID, h.Action, h.PreviousAssigneeID, h.NewAssigneeID,
		h.PreviousStatus, h.NewStatus, h.ChangedBy, h.ChangedAt, h.Note,
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (entities.Task, error) {
	var t entities.Task
	err := row.Scan(&t.ID, &t.GroupID, &t.Name, &t.Description, &t.Difficulty, &t.Status,
		&t.AssignedUserID, &t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
