package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/database"
	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/events"
	"github.com/kaiodadalt/task-management-system/modules/auth"
	"gorm.io/gorm"
)

// Service names registered by the task module.
const (
	ServiceCreateTask  = "create-task"
	ServiceGetTask     = "get-task"
	ServiceUpdateTask  = "update-task"
	ServiceDeleteTask  = "delete-task"
	ServiceSearchTasks = "search-tasks"
)

// TaskModule provides task management services (core domain).
type TaskModule struct {
	cfg        config.Config
	db         *gorm.DB
	service    *TaskService
	dispatcher *Dispatcher
	userPort   auth.UserPort
	eventBus   mono.EventBus
	logger     types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventBusAwareModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(cfg config.Config, logger types.Logger) *TaskModule {
	return &TaskModule{cfg: cfg, logger: logger}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Dependencies returns the list of module dependencies.
func (m *TaskModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.userPort = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the event bus used for lifecycle notifications.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the lifecycle events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTask, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTask, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetTask, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTask, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTask, json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTask, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSearchTasks, json.Unmarshal, json.Marshal, m.handleSearch,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSearchTasks, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceCreateTask, ServiceGetTask, ServiceUpdateTask, ServiceDeleteTask, ServiceSearchTasks})
	return nil
}

// Start opens the task store and starts the notification dispatcher.
func (m *TaskModule) Start(_ context.Context) error {
	if m.userPort == nil {
		return fmt.Errorf("userPort dependency not set")
	}

	db, err := database.Open(m.cfg.DBPath, m.cfg.DBDebug, &domain.Task{})
	if err != nil {
		return err
	}
	m.db = db

	publish := func(ev events.TaskLifecycleEvent) error {
		return fmt.Errorf("event bus not set")
	}
	if m.eventBus != nil {
		publish = BusPublisher(m.eventBus)
	} else {
		m.logger.Warn("Event bus not set, lifecycle events will not be published")
	}

	m.dispatcher = NewDispatcher(m.cfg.NotifyBuffer, publish, m.logger.WithModule("notifier"))
	m.dispatcher.Start()
	m.service = NewTaskService(NewTaskRepository(db), m.userPort, m.dispatcher)

	m.logger.Info("Module started", "database", m.cfg.DBPath, "notify_buffer", m.cfg.NotifyBuffer)
	return nil
}

// Stop drains pending notifications and closes the store.
func (m *TaskModule) Stop(ctx context.Context) error {
	if m.dispatcher != nil {
		if err := m.dispatcher.Stop(ctx); err != nil {
			m.logger.Warn("Pending notifications dropped", "error", err)
		}
	}
	if err := database.Close(m.db); err != nil {
		m.logger.Warn("Failed to close database", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database":      m.cfg.DBPath,
			"notify_buffer": m.cfg.NotifyBuffer,
		},
	}
}

// Service returns the underlying service. It is nil until Start.
func (m *TaskModule) Service() *TaskService {
	return m.service
}

func (m *TaskModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Create(ctx, req.ActorID, req.Input)
	if err != nil {
		return m.taskFailure(err, "create", req.ActorID)
	}
	m.logger.Info("Task created", "task_id", t.ID, "actor_id", req.ActorID)
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Get(ctx, req.ActorID, req.TaskID)
	if err != nil {
		return m.taskFailure(err, "get", req.ActorID)
	}
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Update(ctx, req.ActorID, req.TaskID, req.Input)
	if err != nil {
		return m.taskFailure(err, "update", req.ActorID)
	}
	m.logger.Info("Task updated", "task_id", t.ID, "actor_id", req.ActorID)
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskReply, error) {
	if err := m.service.Delete(ctx, req.ActorID, req.TaskID); err != nil {
		failure, err := encodeFailure(err)
		if err != nil {
			m.logger.Error("Task delete failed", "task_id", req.TaskID, "error", err)
		}
		return DeleteTaskReply{Error: failure}, err
	}
	m.logger.Info("Task deleted", "task_id", req.TaskID, "actor_id", req.ActorID)
	return DeleteTaskReply{Deleted: true}, nil
}

func (m *TaskModule) handleSearch(ctx context.Context, req SearchTasksRequest, _ *mono.Msg) (SearchTasksReply, error) {
	page, err := m.service.Search(ctx, req.ActorID, req.Query)
	if err != nil {
		failure, err := encodeFailure(err)
		if err != nil {
			m.logger.Error("Task search failed", "actor_id", req.ActorID, "error", err)
		}
		return SearchTasksReply{Error: failure}, err
	}
	return SearchTasksReply{Page: page}, nil
}

func (m *TaskModule) taskFailure(err error, op string, actorID uint) (TaskReply, error) {
	failure, err := encodeFailure(err)
	if err != nil {
		m.logger.Error("Task operation failed", "op", op, "actor_id", actorID, "error", err)
	}
	return TaskReply{Error: failure}, err
}
