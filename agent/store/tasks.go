package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusArchived   = "archived"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"

	AuditActionCreated      = "created"
	AuditActionEdited       = "edited"
	AuditActionStatusChange = "status_change"
	AuditActionDeleted      = "deleted"
)

// TaskFilter narrows ListTasks.
type TaskFilter string

const (
	TaskFilterAll          TaskFilter = "all"
	TaskFilterTodo         TaskFilter = "todo"
	TaskFilterInProgress   TaskFilter = "in_progress"
	TaskFilterCompleted    TaskFilter = "completed"
	TaskFilterArchived     TaskFilter = "archived"
	TaskFilterHighPriority TaskFilter = "high_priority"
	TaskFilterOverdue      TaskFilter = "overdue"
)

var TaskFilters = []TaskFilter{
	TaskFilterAll,
	TaskFilterTodo,
	TaskFilterInProgress,
	TaskFilterCompleted,
	TaskFilterArchived,
	TaskFilterHighPriority,
	TaskFilterOverdue,
}

func (f TaskFilter) Valid() bool {
	for _, known := range TaskFilters {
		if f == known {
			return true
		}
	}
	return false
}

// ListTasks returns the user's tasks newest first. Overdue means a due date
// before now on a task that is neither completed nor archived.
func (s *BunStore) ListTasks(ctx context.Context, userID string, filter TaskFilter, now time.Time) ([]Task, error) {
	var out []Task
	q := s.db.NewSelect().Model(&out).Where("user_id = ?", userID)

	switch filter {
	case TaskFilterAll, "":
	case TaskFilterTodo, TaskFilterInProgress, TaskFilterCompleted, TaskFilterArchived:
		q = q.Where("status = ?", string(filter))
	case TaskFilterHighPriority:
		q = q.Where("priority IN (?)", bun.In([]string{TaskPriorityHigh, TaskPriorityUrgent}))
	case TaskFilterOverdue:
		q = q.Where("status NOT IN (?)", bun.In([]string{TaskStatusCompleted, TaskStatusArchived})).
			Where("due_at IS NOT NULL")
	default:
		return nil, fmt.Errorf("list tasks: unknown filter %q", filter)
	}

	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if filter != TaskFilterOverdue {
		return out, nil
	}
	overdue := out[:0]
	for _, t := range out {
		if t.DueAt != nil && t.DueAt.Before(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

func (s *BunStore) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	t := new(Task)
	err := s.db.NewSelect().
		Model(t).
		Where("id = ?", taskID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "task")
	}
	return t, nil
}

func (s *BunStore) CreateTask(ctx context.Context, t *Task) error {
	if t == nil {
		return ErrNilRecord
	}
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	if _, err := s.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *BunStore) UpdateTask(ctx context.Context, t *Task) error {
	if t == nil {
		return ErrNilRecord
	}
	t.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(t).
		Column("title", "description", "status", "priority", "due_at", "completed_at", "updated_at").
		Where("id = ?", t.ID).
		Where("user_id = ?", t.UserID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, t.ID)
	}
	return nil
}

func (s *BunStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.NewDelete().
		Model((*Task)(nil)).
		Where("id = ?", taskID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	return nil
}

func (s *BunStore) CreateAuditLogEntry(ctx context.Context, e *AuditEntry) error {
	if e == nil {
		return ErrNilRecord
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListAuditLog returns entries oldest first. An empty taskID lists every
// entry for the user.
func (s *BunStore) ListAuditLog(ctx context.Context, userID, taskID string) ([]AuditEntry, error) {
	var out []AuditEntry
	q := s.db.NewSelect().Model(&out).Where("user_id = ?", userID)
	if taskID != "" {
		q = q.Where("task_id = ?", taskID)
	}
	if err := q.Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return out, nil
}
