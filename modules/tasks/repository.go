package tasks

import (
	"errors"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a task does not exist or belongs to
// another user. The two cases are indistinguishable on purpose.
var ErrTaskNotFound = errors.New("task not found")

// Repository handles task persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// List returns the user's tasks matching the query. Filters compose with
// AND; search matches title or description case-insensitively; results
// come back in the requested sort order.
func (r *Repository) List(userID uint, q domain.Query) ([]domain.Task, error) {
	q = q.Normalize()

	stmt := r.db.Where("user_id = ?", userID)

	if q.Status != "" {
		stmt = stmt.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		stmt = stmt.Where("priority = ?", q.Priority)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		stmt = stmt.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	order := q.SortBy + " " + q.SortOrder
	stmt = stmt.Order(order).Offset(q.Offset).Limit(q.Limit)

	tasks := []domain.Task{}
	if err := stmt.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByID finds a task by ID scoped to its owner.
func (r *Repository) FindByID(userID, taskID uint) (*domain.Task, error) {
	var task domain.Task
	result := r.db.First(&task, "id = ? AND user_id = ?", taskID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Create inserts a new task.
func (r *Repository) Create(task *domain.Task) error {
	return r.db.Create(task).Error
}

// Save persists all fields of an existing task.
func (r *Repository) Save(task *domain.Task) error {
	return r.db.Save(task).Error
}

// Delete removes a task by ID scoped to its owner. Returns ErrTaskNotFound
// if nothing was deleted.
func (r *Repository) Delete(userID, taskID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", taskID, userID).Delete(&domain.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
