package client

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is the wire representation of a task.
type Task struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskCreate is the payload for creating a task.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskUpdate is the payload for a partial task update. Nil fields are
// left unchanged on the server.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskStore holds the client-side task collection together with the
// active listing criteria and the last operation's error state. All
// methods are safe for concurrent use.
//
// The store never re-sorts: the slice always reflects the order the
// server returned, with created tasks prepended until the next fetch.
type TaskStore struct {
	client *Client

	mu       sync.Mutex
	tasks    []Task
	criteria Criteria
	err      string
	loading  bool
}

// NewTaskStore creates a task store backed by the given client.
func NewTaskStore(client *Client) *TaskStore {
	return &TaskStore{client: client}
}

// Tasks returns a snapshot of the current collection.
func (s *TaskStore) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Criteria returns the active listing criteria.
func (s *TaskStore) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Err returns the message of the last failed operation, or the empty
// string if the last operation succeeded.
func (s *TaskStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether a fetch is in progress.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Fetch loads the task list for the active criteria, replacing the
// collection on success. On failure the previous collection is kept.
// A fetch superseded by a newer one fails silently: its cancellation
// is not recorded as an error.
func (s *TaskStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	criteria := s.criteria
	s.loading = true
	s.mu.Unlock()

	var tasks []Task
	err := s.client.Get(ctx, "/tasks/", criteria.Values(), &tasks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		if !IsCanceled(err) {
			s.err = err.Error()
		}
		return err
	}
	s.tasks = tasks
	s.err = ""
	return nil
}

// SetFilters updates the filter criteria and immediately refetches.
// An in-flight fetch with the previous criteria is superseded.
func (s *TaskStore) SetFilters(ctx context.Context, status, priority, search string) error {
	s.mu.Lock()
	s.criteria.Status = status
	s.criteria.Priority = priority
	s.criteria.Search = search
	s.criteria.Offset = 0
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// SetSorting updates the sort criteria and immediately refetches.
func (s *TaskStore) SetSorting(ctx context.Context, sortBy, sortOrder string) error {
	s.mu.Lock()
	s.criteria.SortBy = sortBy
	s.criteria.SortOrder = sortOrder
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// Create submits a new task and prepends the server's echo to the
// collection, making it visible without waiting for a refetch.
func (s *TaskStore) Create(ctx context.Context, req TaskCreate) (*Task, error) {
	var created Task
	err := s.client.Post(ctx, "/tasks/", req, &created)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return nil, err
	}
	s.tasks = append([]Task{created}, s.tasks...)
	s.err = ""
	return &created, nil
}

// Update submits a partial update and replaces the matching task in
// place, preserving its position. If the task has been removed locally
// in the meantime, the echo is dropped.
func (s *TaskStore) Update(ctx context.Context, id uint, req TaskUpdate) (*Task, error) {
	var updated Task
	err := s.client.Put(ctx, fmt.Sprintf("/tasks/%d", id), req, &updated)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return nil, err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == updated.ID {
			s.tasks[i] = updated
			break
		}
	}
	s.err = ""
	return &updated, nil
}

// Delete removes a task on the server and drops it from the collection.
func (s *TaskStore) Delete(ctx context.Context, id uint) error {
	err := s.client.Delete(ctx, fmt.Sprintf("/tasks/%d", id))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.err = ""
	return nil
}
