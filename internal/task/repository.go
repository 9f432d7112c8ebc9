package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tasknest/api/internal/database"
)

// ErrNotFound is returned when a task does not exist or belongs to another
// user. The two cases are deliberately indistinguishable so callers cannot
// probe for the existence of other users' tasks.
var ErrNotFound = errors.New("task not found")

// Repository handles task persistence. Every query that touches an existing
// row carries the owner predicate; there is no code path that reads or
// writes a task by id alone.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new task and fills in its assigned id and timestamps
func (r *Repository) Create(ctx context.Context, t *Task) error {
	dbTask := &database.Task{
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		IsComplete:  t.IsComplete,
	}

	_, err := r.db.NewInsert().
		Model(dbTask).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	*t = *mapDBTaskToModel(dbTask)
	return nil
}

// ListByOwner returns the owner's tasks, newest first. A non-nil isComplete
// restricts the result to that completion state.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, isComplete *bool) ([]*Task, error) {
	var dbTasks []*database.Task

	q := r.db.NewSelect().
		Model(&dbTasks).
		Where("user_id = ?", ownerID)

	if isComplete != nil {
		q = q.Where("is_complete = ?", *isComplete)
	}

	err := q.Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(dbTasks))
	for _, dbt := range dbTasks {
		tasks = append(tasks, mapDBTaskToModel(dbt))
	}
	return tasks, nil
}

// CountByOwner returns the owner's total task count, unfiltered
func (r *Repository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Task)(nil)).
		Where("user_id = ?", ownerID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// GetOwned is the guarded lookup used by every single-task operation:
// the row must match both id and owner, and zero rows is ErrNotFound
// whether the id is absent or the task belongs to someone else.
func (r *Repository) GetOwned(ctx context.Context, ownerID, taskID int64) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewSelect().
		Model(dbTask).
		Where("id = ?", taskID).
		Where("user_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// Update persists title, description, and completion state of an owned task.
// The owner predicate is part of the UPDATE itself, so a task deleted or
// never owned between read and write surfaces as ErrNotFound.
func (r *Repository) Update(ctx context.Context, t *Task) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewUpdate().
		Model(dbTask).
		Set("title = ?", t.Title).
		Set("description = ?", t.Description).
		Set("is_complete = ?", t.IsComplete).
		Set("updated_at = NOW()").
		Where("id = ?", t.ID).
		Where("user_id = ?", t.UserID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// DeleteOwned removes an owned task
func (r *Repository) DeleteOwned(ctx context.Context, ownerID, taskID int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Task)(nil)).
		Where("id = ?", taskID).
		Where("user_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBTaskToModel converts database model to domain model
func mapDBTaskToModel(dbt *database.Task) *Task {
	return &Task{
		ID:          dbt.ID,
		UserID:      dbt.UserID,
		Title:       dbt.Title,
		Description: dbt.Description,
		IsComplete:  dbt.IsComplete,
		CreatedAt:   dbt.CreatedAt,
		UpdatedAt:   dbt.UpdatedAt,
	}
}
