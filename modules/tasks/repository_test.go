package tasks

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRepository(db)
}

func seedTask(t *testing.T, r *Repository, task domain.Task) domain.Task {
	t.Helper()
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := r.Create(&task); err != nil {
		t.Fatalf("failed to seed task %q: %v", task.Title, err)
	}
	return task
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func TestListFilters(t *testing.T) {
	r := newTestRepository(t)
	seedTask(t, r, domain.Task{UserID: 1, Title: "write report", Status: domain.StatusPending, Priority: domain.PriorityHigh})
	seedTask(t, r, domain.Task{UserID: 1, Title: "review code", Status: domain.StatusCompleted, Priority: domain.PriorityHigh})
	seedTask(t, r, domain.Task{UserID: 1, Title: "plan sprint", Status: domain.StatusPending, Priority: domain.PriorityLow})
	seedTask(t, r, domain.Task{UserID: 2, Title: "other user task", Status: domain.StatusPending, Priority: domain.PriorityHigh})

	tests := []struct {
		name  string
		query domain.Query
		want  int
	}{
		{"no filters", domain.Query{}, 3},
		{"by status", domain.Query{Status: domain.StatusPending}, 2},
		{"by priority", domain.Query{Priority: domain.PriorityHigh}, 2},
		{"status and priority", domain.Query{Status: domain.StatusPending, Priority: domain.PriorityHigh}, 1},
		{"search title", domain.Query{Search: "report"}, 1},
		{"search no match", domain.Query{Search: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(1, tt.query.Normalize())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d tasks (%v), want %d", len(got), titles(got), tt.want)
			}
			for _, task := range got {
				if task.UserID != 1 {
					t.Errorf("task %q belongs to user %d", task.Title, task.UserID)
				}
			}
		})
	}
}

func TestListSearchMatchesDescription(t *testing.T) {
	r := newTestRepository(t)
	seedTask(t, r, domain.Task{UserID: 1, Title: "untitled", Description: "quarterly budget numbers"})

	got, err := r.List(1, domain.Query{Search: "budget"}.Normalize())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List() returned %d tasks, want 1", len(got))
	}
}

func TestListSorting(t *testing.T) {
	r := newTestRepository(t)
	due := func(d int) *time.Time {
		ts := time.Now().Add(time.Duration(d) * 24 * time.Hour)
		return &ts
	}
	seedTask(t, r, domain.Task{UserID: 1, Title: "banana", DueDate: due(3)})
	seedTask(t, r, domain.Task{UserID: 1, Title: "apple", DueDate: due(1)})
	seedTask(t, r, domain.Task{UserID: 1, Title: "cherry", DueDate: due(2)})

	got, err := r.List(1, domain.Query{SortBy: "title", SortOrder: "asc"}.Normalize())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	for i, title := range titles(got) {
		if title != want[i] {
			t.Fatalf("titles = %v, want %v", titles(got), want)
		}
	}

	got, err = r.List(1, domain.Query{SortBy: "due_date", SortOrder: "desc"}.Normalize())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if titles(got)[0] != "banana" {
		t.Errorf("titles = %v, want banana first", titles(got))
	}
}

func TestListPagination(t *testing.T) {
	r := newTestRepository(t)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		seedTask(t, r, domain.Task{UserID: 1, Title: title})
	}

	got, err := r.List(1, domain.Query{SortBy: "title", SortOrder: "asc", Limit: 2, Offset: 2}.Normalize())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].Title != "c" || got[1].Title != "d" {
		t.Errorf("titles = %v, want [c d]", titles(got))
	}
}

func TestFindByIDOwnerScoped(t *testing.T) {
	r := newTestRepository(t)
	task := seedTask(t, r, domain.Task{UserID: 1, Title: "mine"})

	found, err := r.FindByID(1, task.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Title != "mine" {
		t.Errorf("title = %q", found.Title)
	}

	// Another user cannot see the task.
	if _, err := r.FindByID(2, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("cross-user FindByID() error = %v, want ErrTaskNotFound", err)
	}
	if _, err := r.FindByID(1, 9999); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing FindByID() error = %v, want ErrTaskNotFound", err)
	}
}

func TestDeleteOwnerScoped(t *testing.T) {
	r := newTestRepository(t)
	task := seedTask(t, r, domain.Task{UserID: 1, Title: "mine"})

	if err := r.Delete(2, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("cross-user Delete() error = %v, want ErrTaskNotFound", err)
	}
	if err := r.Delete(1, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := r.Delete(1, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrTaskNotFound", err)
	}
}
