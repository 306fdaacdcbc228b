package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"gorm.io/gorm"
)

// TaskRepository provides access to task storage.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Transaction runs fn against a repository bound to a single database
// transaction. The transaction commits when fn returns nil.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(tx *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

// Create inserts a new task and fills its id and timestamps.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its id.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// Save writes every column of an existing task.
func (r *TaskRepository) Save(ctx context.Context, t *domain.Task) error {
	if t.ID == 0 {
		return domain.ErrNotFound
	}
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Delete removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Search returns the page of tasks visible to actorID that match c,
// ordered by id.
func (r *TaskRepository) Search(ctx context.Context, actorID uint, c SearchCriteria) (Page, error) {
	scopes := []func(*gorm.DB) *gorm.DB{
		visibleTo(actorID),
		withStatus(c.Status),
		withPriority(c.Priority),
		createdBetween(c),
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Scopes(scopes...).Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	items := make([]domain.Task, 0, c.PerPage)
	if offset := c.Offset(); total > offset {
		if err := r.db.WithContext(ctx).
			Scopes(scopes...).
			Order("id ASC").
			Offset(int(offset)).
			Limit(c.PerPage).
			Find(&items).Error; err != nil {
			return Page{}, fmt.Errorf("failed to search tasks: %w", err)
		}
	}

	return Page{Items: items, Total: total, CurrentPage: c.Page, PerPage: c.PerPage}, nil
}

func visibleTo(actorID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(created_by = ? OR assigned_to = ?)", actorID, actorID)
	}
}

func withStatus(s *domain.Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s == nil {
			return db
		}
		return db.Where("status = ?", string(*s))
	}
}

func withPriority(p *domain.Priority) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p == nil {
			return db
		}
		return db.Where("priority = ?", string(*p))
	}
}

func createdBetween(c SearchCriteria) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case c.Start != nil && c.End != nil:
			return db.Where("created_at BETWEEN ? AND ?", *c.Start, *c.End)
		case c.Start != nil:
			return db.Where("created_at >= ?", *c.Start)
		case c.End != nil:
			return db.Where("created_at <= ?", *c.End)
		default:
			return db
		}
	}
}
