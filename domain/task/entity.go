package task

import (
	"time"
)

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatus reports whether s is one of the allowed status values.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// ValidPriority reports whether p is one of the allowed priority values.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task represents a user's task.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;index;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:20;index;not null;check:status IN ('pending','in-progress','completed')" json:"status"`
	Priority    string     `gorm:"size:20;index;not null;check:priority IN ('low','medium','high')" json:"priority"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	UserID      uint       `gorm:"index:idx_user_status;index:idx_user_priority;not null" json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Sortable fields accepted by list queries.
var sortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"title":      true,
	"status":     true,
	"priority":   true,
}

// ValidSortField reports whether f can be used as a list sort key.
func ValidSortField(f string) bool {
	return sortFields[f]
}

// Query describes the filter, search, sort and pagination parameters
// of a task list request. Zero-value filter fields mean "no constraint";
// filters compose with AND.
type Query struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Normalize fills defaults and clamps pagination to the allowed range.
func (q Query) Normalize() Query {
	if q.SortBy == "" || !ValidSortField(q.SortBy) {
		q.SortBy = "created_at"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
