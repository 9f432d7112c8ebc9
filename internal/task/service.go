package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tasknest/api/internal/logging"
)

var (
	ErrTitleRequired      = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title must be at most 200 characters")
	ErrDescriptionTooLong = errors.New("description must be at most 1000 characters")
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// Store defines the task persistence operations the service needs
type Store interface {
	Create(ctx context.Context, t *Task) error
	ListByOwner(ctx context.Context, ownerID int64, isComplete *bool) ([]*Task, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	GetOwned(ctx context.Context, ownerID, taskID int64) (*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	DeleteOwned(ctx context.Context, ownerID, taskID int64) error
}

// CreateInput carries the caller-supplied fields for task creation.
// There is deliberately no owner field: the owner is always the
// authenticated identity.
type CreateInput struct {
	Title       string
	Description *string
}

// UpdateInput carries a partial update: nil fields are left unchanged
type UpdateInput struct {
	Title       *string
	Description *string
}

// ListResult is a filtered listing together with the owner's total count
type ListResult struct {
	Tasks         []*Task
	TotalCount    int
	FilteredCount int
}

// Service implements task operations. Every method takes the authenticated
// user id as its first domain argument and scopes all persistence by it.
type Service struct {
	repo   Store
	logger *logging.Logger
}

func NewService(repo Store, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create makes a new task owned by the authenticated user
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	t := &Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		IsComplete:  false,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created", "task_id", t.ID, "user_id", userID)
	return t, nil
}

// List returns the user's tasks, newest first, with counts. statusFilter
// "complete" and "incomplete" restrict the result; any other value is
// treated as unfiltered.
func (s *Service) List(ctx context.Context, userID int64, statusFilter string) (*ListResult, error) {
	tasks, err := s.repo.ListByOwner(ctx, userID, parseStatusFilter(statusFilter))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.repo.CountByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &ListResult{
		Tasks:         tasks,
		TotalCount:    total,
		FilteredCount: len(tasks),
	}, nil
}

// Get returns a single owned task
func (s *Service) Get(ctx context.Context, userID, taskID int64) (*Task, error) {
	return s.repo.GetOwned(ctx, userID, taskID)
}

// Update applies a partial update to an owned task. Only fields supplied
// in the input change; validation matches Create.
func (s *Service) Update(ctx context.Context, userID, taskID int64, in UpdateInput) (*Task, error) {
	t, err := s.repo.GetOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		t.Title = title
	}

	if in.Description != nil {
		description, err := normalizeDescription(in.Description)
		if err != nil {
			return nil, err
		}
		t.Description = description
	}

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", updated.ID, "user_id", userID)
	return updated, nil
}

// Delete removes an owned task
func (s *Service) Delete(ctx context.Context, userID, taskID int64) error {
	if err := s.repo.DeleteOwned(ctx, userID, taskID); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID, "user_id", userID)
	return nil
}

// Toggle flips the completion flag of an owned task. Concurrent toggles of
// the same task resolve last-write-wins at the database.
func (s *Service) Toggle(ctx context.Context, userID, taskID int64) (*Task, error) {
	t, err := s.repo.GetOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	t.IsComplete = !t.IsComplete

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completion toggled", "task_id", updated.ID, "user_id", userID, "is_complete", updated.IsComplete)
	return updated, nil
}

// validateTitle trims and bounds-checks a title. Limits count characters,
// not bytes, so multibyte input is measured the way users see it.
func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLen {
		return "", ErrTitleTooLong
	}
	return trimmed, nil
}

// normalizeDescription trims a description and collapses empty values to absent
func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLen {
		return nil, ErrDescriptionTooLong
	}
	return &trimmed, nil
}

// parseStatusFilter maps a filter value to a completion-state predicate.
// Unrecognized values mean unfiltered rather than an error.
func parseStatusFilter(filter string) *bool {
	switch filter {
	case "complete":
		v := true
		return &v
	case "incomplete":
		v := false
		return &v
	default:
		return nil
	}
}
