package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	domain "github.com/kaiodadalt/task-management-system/domain/task"
)

// Lifecycle event names, also used as the broadcast event name.
const (
	NameTaskCreated = "TaskCreated"
	NameTaskUpdated = "TaskUpdated"
	NameTaskDeleted = "TaskDeleted"
)

// TaskPayload mirrors the public fields of a task.
type TaskPayload struct {
	ID          uint       `json:"id"`
	CreatedBy   uint       `json:"created_by"`
	AssignedTo  *uint      `json:"assigned_to"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTaskPayload builds the payload from a task snapshot.
func NewTaskPayload(t domain.Task) TaskPayload {
	s := t.Snapshot()
	return TaskPayload{
		ID:          s.ID,
		CreatedBy:   s.CreatedBy,
		AssignedTo:  s.AssignedTo,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		Priority:    string(s.Priority),
		DueDate:     s.DueDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// TaskLifecycleEvent is emitted after a task mutation commits.
type TaskLifecycleEvent struct {
	EventID    string      `json:"event_id"`
	Name       string      `json:"event"`
	Task       TaskPayload `json:"task"`
	Channels   []string    `json:"channels"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewTaskLifecycleEvent builds an event for t addressed to its participants.
func NewTaskLifecycleEvent(name string, t domain.Task, at time.Time) TaskLifecycleEvent {
	return TaskLifecycleEvent{
		EventID:    uuid.NewString(),
		Name:       name,
		Task:       NewTaskPayload(t),
		Channels:   ChannelsFor(t),
		OccurredAt: at,
	}
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskLifecycleEvent](
	"task", NameTaskCreated, "v1",
)

// TaskUpdatedV1 is emitted on every successful update, whatever changed.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskLifecycleEvent](
	"task", NameTaskUpdated, "v1",
)

// TaskDeletedV1 carries the snapshot taken before removal.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskLifecycleEvent](
	"task", NameTaskDeleted, "v1",
)
