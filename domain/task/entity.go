package task

import "time"

// Task is the core domain entity: a unit of work owned by its creator and
// optionally delegated to an assignee.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedBy   uint       `gorm:"not null;index" json:"created_by"`
	AssignedTo  *uint      `gorm:"index" json:"assigned_to"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      Status     `gorm:"type:text;not null;index" json:"status"`
	Priority    Priority   `gorm:"type:text;not null;index" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Snapshot returns a copy of t that shares no pointers with it.
func (t Task) Snapshot() Task {
	s := t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		s.AssignedTo = &v
	}
	if t.Description != nil {
		v := *t.Description
		s.Description = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		s.DueDate = &v
	}
	return s
}

// Participants returns the creator and, when different, the assignee.
func (t Task) Participants() []uint {
	ids := []uint{t.CreatedBy}
	if t.AssignedTo != nil && *t.AssignedTo != t.CreatedBy {
		ids = append(ids, *t.AssignedTo)
	}
	return ids
}
