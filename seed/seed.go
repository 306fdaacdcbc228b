// Package seed fills the database with demo users and tasks.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/database"
	taskdomain "github.com/kaiodadalt/task-management-system/domain/task"
	userdomain "github.com/kaiodadalt/task-management-system/domain/user"
	"github.com/kaiodadalt/task-management-system/modules/auth"
	"github.com/kaiodadalt/task-management-system/modules/task"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password"

// Options controls how much data is created.
type Options struct {
	Users int
	Tasks int
	Rand  *rand.Rand
}

// Result reports what was created.
type Result struct {
	Users []userdomain.User
	Tasks int
}

var words = []string{
	"review", "draft", "release", "budget", "client", "design", "invoice",
	"meeting", "migration", "onboarding", "report", "roadmap", "sprint", "audit",
}

// Run creates opts.Users users, reusing any that already exist, and
// opts.Tasks tasks spread across them.
func Run(ctx context.Context, cfg config.Config, opts Options, logger types.Logger) (Result, error) {
	if opts.Users < 1 {
		return Result{}, errors.New("at least one user is required")
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	db, err := database.Open(cfg.DBPath, cfg.DBDebug, &userdomain.User{}, &taskdomain.Task{})
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}()

	users := auth.NewUserRepository(db)
	service := auth.NewAuthService(users, auth.NewPasswordHasher(auth.DefaultBcryptCost), auth.NewJWTManager(auth.JWTConfig{
		SecretKey:            cfg.JWTSecret,
		AccessTokenDuration:  cfg.AccessTokenTTL,
		RefreshTokenDuration: cfg.RefreshTokenTTL,
		Issuer:               cfg.JWTIssuer,
	}))

	var result Result
	for i := 0; i < opts.Users; i++ {
		name, email := demoUser(i)
		user, err := service.Register(ctx, name, email, DemoPassword)
		if errors.Is(err, auth.ErrUserExists) {
			user, err = users.FindByEmail(ctx, email)
		}
		if err != nil {
			return result, fmt.Errorf("failed to seed user %s: %w", email, err)
		}
		result.Users = append(result.Users, *user)
	}
	logger.Info("Seeded users", "count", len(result.Users))

	repo := task.NewTaskRepository(db)
	now := time.Now().UTC()
	err = repo.Transaction(ctx, func(tx *task.TaskRepository) error {
		for i := 0; i < opts.Tasks; i++ {
			t := randomTask(opts.Rand, result.Users, now)
			if err := tx.Create(ctx, &t); err != nil {
				return err
			}
			result.Tasks++
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to seed tasks: %w", err)
	}
	logger.Info("Seeded tasks", "count", result.Tasks)
	return result, nil
}

func demoUser(i int) (name, email string) {
	if i == 0 {
		return "Test User", "test@example.com"
	}
	return fmt.Sprintf("Demo User %d", i), fmt.Sprintf("demo%d@example.com", i)
}

func randomTask(r *rand.Rand, users []userdomain.User, now time.Time) taskdomain.Task {
	creator := users[r.IntN(len(users))]
	t := taskdomain.Task{
		CreatedBy: creator.ID,
		Title:     sentence(r, 3+r.IntN(4)),
		Status:    taskdomain.Statuses[r.IntN(len(taskdomain.Statuses))],
		Priority:  taskdomain.Priorities[r.IntN(len(taskdomain.Priorities))],
	}
	if r.IntN(4) > 0 {
		d := sentence(r, 8+r.IntN(8))
		t.Description = &d
	}
	if r.IntN(2) == 0 {
		assignee := users[r.IntN(len(users))].ID
		t.AssignedTo = &assignee
	}
	if r.IntN(3) > 0 {
		due := now.Add(time.Duration(r.IntN(30*24)) * time.Hour)
		t.DueDate = &due
	}
	return t
}

func sentence(r *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[r.IntN(len(words))]
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
