package task

import (
	"context"
	"fmt"
	"time"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/modules/auth"
)

// TaskService orchestrates task use cases: resolve, authorize, validate,
// persist, then notify.
type TaskService struct {
	repo     *TaskRepository
	users    auth.UserPort
	notifier Notifier
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *TaskRepository, users auth.UserPort, notifier Notifier) *TaskService {
	return &TaskService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create validates in and stores a task owned by actorID.
func (s *TaskService) Create(ctx context.Context, actorID uint, in domain.Input) (*domain.Task, error) {
	if !domain.CanCreate(actorID) {
		return nil, domain.ErrUnauthenticated
	}

	t, err := domain.NewTask(actorID, in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, t.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.repo.Transaction(ctx, func(tx *TaskRepository) error {
		return tx.Create(ctx, &t)
	}); err != nil {
		return nil, err
	}

	s.notifier.TaskCreated(t)
	return &t, nil
}

// Get returns the task when actorID may view it.
func (s *TaskService) Get(ctx context.Context, actorID, taskID uint) (*domain.Task, error) {
	if actorID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	t, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actorID, *t) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

// Update merges in into the task when actorID is its creator.
func (s *TaskService) Update(ctx context.Context, actorID, taskID uint, in domain.Input) (*domain.Task, error) {
	if actorID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	var updated domain.Task
	err := s.repo.Transaction(ctx, func(tx *TaskRepository) error {
		current, err := tx.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !domain.CanUpdate(actorID, *current) {
			return domain.ErrForbidden
		}

		merged, err := current.Merge(in, s.now())
		if err != nil {
			return err
		}
		if id, ok := in.AssignedTo.Get(); ok {
			if err := s.checkAssignee(ctx, &id); err != nil {
				return err
			}
		}

		if err := tx.Save(ctx, &merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.TaskUpdated(updated)
	return &updated, nil
}

// Delete removes the task when actorID is its creator.
func (s *TaskService) Delete(ctx context.Context, actorID, taskID uint) error {
	if actorID == 0 {
		return domain.ErrUnauthenticated
	}

	var snapshot domain.Task
	err := s.repo.Transaction(ctx, func(tx *TaskRepository) error {
		current, err := tx.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !domain.CanDelete(actorID, *current) {
			return domain.ErrForbidden
		}
		snapshot = current.Snapshot()
		return tx.Delete(ctx, taskID)
	})
	if err != nil {
		return err
	}

	s.notifier.TaskDeleted(snapshot)
	return nil
}

// Search returns the page of tasks visible to actorID matching q.
func (s *TaskService) Search(ctx context.Context, actorID uint, q SearchQuery) (Page, error) {
	if actorID == 0 {
		return Page{}, domain.ErrUnauthenticated
	}

	criteria, err := ParseSearchQuery(q, s.now().Location())
	if err != nil {
		return Page{}, err
	}
	return s.repo.Search(ctx, actorID, criteria)
}

func (s *TaskService) checkAssignee(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	exists, err := s.users.UserExists(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to validate assignee: %w", err)
	}
	if !exists {
		return domain.NewValidationError("assigned_to", "The selected assigned to is invalid.")
	}
	return nil
}
