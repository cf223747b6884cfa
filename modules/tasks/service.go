// Package tasks provides the task service with list caching support.
package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
	"github.com/Rahim-U/horizon-labs-assessment/modules/cache"
	"golang.org/x/sync/singleflight"
)

// Service provides task operations with cache-aside list caching.
type Service struct {
	repo    *Repository
	cache   *cache.Cache
	sfGroup singleflight.Group // Prevents cache stampede
	now     func() time.Time
}

// NewService creates a new task service. c may be a disabled cache.
func NewService(repo *Repository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// cacheKeyList returns the cache key for a user's task list under a query.
func cacheKeyList(userID uint, q domain.Query) string {
	return fmt.Sprintf("tasks:%d:%s:%s:%s:%s:%s:%d:%d",
		userID, q.Status, q.Priority, q.Search, q.SortBy, q.SortOrder, q.Limit, q.Offset)
}

// userPattern matches every cached list key of the given user.
func userPattern(userID uint) string {
	return fmt.Sprintf("tasks:%d:*", userID)
}

// List retrieves the user's tasks under the query (cache-aside pattern).
// Uses singleflight so concurrent identical misses hit the database once.
func (s *Service) List(ctx context.Context, userID uint, q domain.Query) ([]domain.Task, error) {
	q = q.Normalize()
	key := cacheKeyList(userID, q)

	var cached []domain.Task
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[tasks] Cache error for user %d: %v", userID, err)
		// Continue to database on cache error
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.repo.List(userID, q)
	})
	if err != nil {
		return nil, err
	}
	result := val.([]domain.Task)

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Printf("[tasks] Warning: failed to cache list for user %d: %v", userID, err)
	}

	return result, nil
}

// Get retrieves a single task scoped to its owner.
func (s *Service) Get(_ context.Context, userID, taskID uint) (*domain.Task, error) {
	return s.repo.FindByID(userID, taskID)
}

// Create creates a new task and invalidates the user's cached lists.
func (s *Service) Create(ctx context.Context, userID uint, req CreateTaskRequest) (*domain.Task, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		UserID:      userID,
	}

	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx, userID)
	log.Printf("[tasks] Created task %d for user %d", task.ID, userID)
	return task, nil
}

// Update applies a partial patch to an existing task, bumps its
// updated_at timestamp and invalidates the user's cached lists.
func (s *Service) Update(ctx context.Context, userID, taskID uint, req UpdateTaskRequest) (*domain.Task, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	task, err := s.repo.FindByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	req.Apply(task)
	task.UpdatedAt = s.now()

	if err := s.repo.Save(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidate(ctx, userID)
	return task, nil
}

// Delete removes a task and invalidates the user's cached lists.
func (s *Service) Delete(ctx context.Context, userID, taskID uint) error {
	if err := s.repo.Delete(userID, taskID); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	log.Printf("[tasks] Deleted task %d for user %d", taskID, userID)
	return nil
}

// invalidate drops every cached list of the user, logging failures.
func (s *Service) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.DeletePattern(ctx, userPattern(userID)); err != nil {
		log.Printf("[tasks] Warning: failed to invalidate cache for user %d: %v", userID, err)
	}
}
