package task

import (
	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/reply"
)

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	ActorID uint         `json:"actor_id"`
	Input   domain.Input `json:"input"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ActorID uint `json:"actor_id"`
	TaskID  uint `json:"task_id"`
}

// UpdateTaskRequest is the request for updating a task.
type UpdateTaskRequest struct {
	ActorID uint         `json:"actor_id"`
	TaskID  uint         `json:"task_id"`
	Input   domain.Input `json:"input"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ActorID uint `json:"actor_id"`
	TaskID  uint `json:"task_id"`
}

// SearchTasksRequest is the request for searching tasks.
type SearchTasksRequest struct {
	ActorID uint        `json:"actor_id"`
	Query   SearchQuery `json:"query"`
}

// TaskReply carries a single task or the failure that prevented it.
type TaskReply struct {
	Task  *domain.Task `json:"task,omitempty"`
	Error *reply.Error `json:"error,omitempty"`
}

// DeleteTaskReply is the reply for deleting a task.
type DeleteTaskReply struct {
	Deleted bool         `json:"deleted"`
	Error   *reply.Error `json:"error,omitempty"`
}

// SearchTasksReply is the reply for searching tasks.
type SearchTasksReply struct {
	Page  Page         `json:"page"`
	Error *reply.Error `json:"error,omitempty"`
}
