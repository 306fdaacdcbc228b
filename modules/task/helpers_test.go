package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/database"
	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"gorm.io/gorm"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any) {}
func (m *mockLogger) Warn(msg string, args ...any) {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) With(args ...any) types.Logger { return m }
func (m *mockLogger) WithError(err error) types.Logger { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:", false, &domain.Task{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// seedTask inserts t as-is, keeping any preset timestamps.
func seedTask(t *testing.T, db *gorm.DB, task domain.Task) domain.Task {
	t.Helper()
	if task.Title == "" {
		task.Title = "Seeded task"
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return task
}

func uintPtr(v uint) *uint { return &v }

// fakeUsers is a UserPort backed by a fixed id set.
type fakeUsers struct {
	ids map[uint]bool
	err error
}

func newFakeUsers(ids ...uint) *fakeUsers {
	f := &fakeUsers{ids: make(map[uint]bool)}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeUsers) UserExists(_ context.Context, userID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[userID], nil
}

type notification struct {
	name string
	task domain.Task
}

// recordingNotifier captures notifier calls synchronously.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (r *recordingNotifier) record(name string, t domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notification{name: name, task: t.Snapshot()})
}

func (r *recordingNotifier) TaskCreated(t domain.Task) { r.record("created", t) }
func (r *recordingNotifier) TaskUpdated(t domain.Task) { r.record("updated", t) }
func (r *recordingNotifier) TaskDeleted(t domain.Task) { r.record("deleted", t) }

func (r *recordingNotifier) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		names = append(names, c.name)
	}
	return names
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, users *fakeUsers) (*TaskService, *recordingNotifier, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewTaskService(NewTaskRepository(db), users, notifier)
	svc.now = func() time.Time { return testNow }
	return svc, notifier, db
}
