package seed

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/database"
	taskdomain "github.com/kaiodadalt/task-management-system/domain/task"
	userdomain "github.com/kaiodadalt/task-management-system/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any) {}
func (m *mockLogger) Warn(msg string, args ...any) {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) With(args ...any) types.Logger { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }
func (m *mockLogger) WithError(err error) types.Logger { return m }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "seed.db")
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	opts := Options{Users: 3, Tasks: 50, Rand: rand.New(rand.NewPCG(1, 2))}

	result, err := Run(context.Background(), cfg, opts, &mockLogger{})
	require.NoError(t, err)
	require.Len(t, result.Users, 3)
	assert.Equal(t, "Test User", result.Users[0].Name)
	assert.Equal(t, "test@example.com", result.Users[0].Email)
	assert.Equal(t, 50, result.Tasks)

	db, err := database.Open(cfg.DBPath, false, &userdomain.User{}, &taskdomain.Task{})
	require.NoError(t, err)
	defer database.Close(db)

	var tasks []taskdomain.Task
	require.NoError(t, db.Find(&tasks).Error)
	require.Len(t, tasks, 50)

	ids := map[uint]bool{}
	for _, u := range result.Users {
		ids[u.ID] = true
	}
	for _, tk := range tasks {
		assert.True(t, ids[tk.CreatedBy], "creator %d is not a seeded user", tk.CreatedBy)
		if tk.AssignedTo != nil {
			assert.True(t, ids[*tk.AssignedTo], "assignee %d is not a seeded user", *tk.AssignedTo)
		}
		assert.NotEmpty(t, tk.Title)
		assert.True(t, tk.Status.Valid())
		assert.True(t, tk.Priority.Valid())
	}
}

func TestRun_ReusesExistingUsers(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := Run(ctx, cfg, Options{Users: 2, Tasks: 1}, &mockLogger{})
	require.NoError(t, err)
	second, err := Run(ctx, cfg, Options{Users: 2, Tasks: 1}, &mockLogger{})
	require.NoError(t, err)

	assert.Equal(t, first.Users[0].ID, second.Users[0].ID)
	assert.Equal(t, first.Users[1].ID, second.Users[1].ID)
}

func TestRun_NoUsers(t *testing.T) {
	_, err := Run(context.Background(), testConfig(t), Options{}, &mockLogger{})
	assert.Error(t, err)
}
