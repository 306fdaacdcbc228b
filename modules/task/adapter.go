package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/kaiodadalt/task-management-system/domain/task"
)

// TaskPort defines the task operations driving adapters use.
type TaskPort interface {
	CreateTask(ctx context.Context, actorID uint, in domain.Input) (*domain.Task, error)
	GetTask(ctx context.Context, actorID, taskID uint) (*domain.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID uint, in domain.Input) (*domain.Task, error)
	DeleteTask(ctx context.Context, actorID, taskID uint) error
	SearchTasks(ctx context.Context, actorID uint, q SearchQuery) (*Page, error)
}

// taskAdapter implements TaskPort over the task module's request-reply
// services. Domain failures come back as the domain errors.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) CreateTask(ctx context.Context, actorID uint, in domain.Input) (*domain.Task, error) {
	req := CreateTaskRequest{ActorID: actorID, Input: in}
	var resp TaskReply
	if err := callService(ctx, a.container, ServiceCreateTask, &req, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

func (a *taskAdapter) GetTask(ctx context.Context, actorID, taskID uint) (*domain.Task, error) {
	req := GetTaskRequest{ActorID: actorID, TaskID: taskID}
	var resp TaskReply
	if err := callService(ctx, a.container, ServiceGetTask, &req, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

func (a *taskAdapter) UpdateTask(ctx context.Context, actorID, taskID uint, in domain.Input) (*domain.Task, error) {
	req := UpdateTaskRequest{ActorID: actorID, TaskID: taskID, Input: in}
	var resp TaskReply
	if err := callService(ctx, a.container, ServiceUpdateTask, &req, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

func (a *taskAdapter) DeleteTask(ctx context.Context, actorID, taskID uint) error {
	req := DeleteTaskRequest{ActorID: actorID, TaskID: taskID}
	var resp DeleteTaskReply
	if err := callService(ctx, a.container, ServiceDeleteTask, &req, &resp); err != nil {
		return err
	}
	return decodeFailure(resp.Error)
}

func (a *taskAdapter) SearchTasks(ctx context.Context, actorID uint, q SearchQuery) (*Page, error) {
	req := SearchTasksRequest{ActorID: actorID, Query: q}
	var resp SearchTasksReply
	if err := callService(ctx, a.container, ServiceSearchTasks, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, decodeFailure(resp.Error)
	}
	if resp.Page.Items == nil {
		resp.Page.Items = []domain.Task{}
	}
	return &resp.Page, nil
}

// callService runs one request-reply round trip with JSON on both legs.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func taskOrError(resp TaskReply) (*domain.Task, error) {
	if resp.Error != nil {
		return nil, decodeFailure(resp.Error)
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("empty task reply")
	}
	return resp.Task, nil
}
