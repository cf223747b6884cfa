package tasks

import (
	"errors"
	"strings"
	"time"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
)

const (
	// MaxTitleLength is the longest accepted task title.
	MaxTitleLength = 255
	// MaxDescriptionLength is the longest accepted task description.
	MaxDescriptionLength = 2000
)

// Validation errors surfaced to the API layer.
var (
	ErrEmptyTitle      = errors.New("task title is required and cannot be empty")
	ErrTitleTooLong    = errors.New("task title cannot exceed 255 characters")
	ErrDescTooLong     = errors.New("task description cannot exceed 2000 characters")
	ErrInvalidStatus   = errors.New("status must be one of: pending, in-progress, completed")
	ErrInvalidPriority = errors.New("priority must be one of: low, medium, high")
	ErrDueDateInPast   = errors.New("due_date cannot be in the past")
	ErrEmptyUpdate     = errors.New("at least one field must be provided for update")
)

// CreateTaskRequest carries the fields of a task creation call.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks field constraints, filling status/priority defaults.
func (r *CreateTaskRequest) Validate(now time.Time) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(r.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	if !domain.ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	if r.Priority == "" {
		r.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(r.Priority) {
		return ErrInvalidPriority
	}
	if r.DueDate != nil && r.DueDate.Before(now) {
		return ErrDueDateInPast
	}
	return nil
}

// UpdateTaskRequest carries a partial-field patch. Nil pointers mean
// "leave unchanged".
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Empty reports whether the patch contains no fields.
func (r *UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.DueDate == nil
}

// Validate checks the provided fields against field constraints.
func (r *UpdateTaskRequest) Validate(now time.Time) error {
	if r.Empty() {
		return ErrEmptyUpdate
	}
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		if trimmed == "" {
			return ErrEmptyTitle
		}
		if len(trimmed) > MaxTitleLength {
			return ErrTitleTooLong
		}
		*r.Title = trimmed
	}
	if r.Description != nil && len(*r.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if r.Status != nil && !domain.ValidStatus(*r.Status) {
		return ErrInvalidStatus
	}
	if r.Priority != nil && !domain.ValidPriority(*r.Priority) {
		return ErrInvalidPriority
	}
	if r.DueDate != nil && r.DueDate.Before(now) {
		return ErrDueDateInPast
	}
	return nil
}

// Apply copies the provided fields onto the task.
func (r *UpdateTaskRequest) Apply(t *domain.Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
}
