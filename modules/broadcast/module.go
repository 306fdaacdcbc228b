package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/events"
)

var errHubStopped = errors.New("hub stopped")

// BroadcastModule is an EventConsumerModule that relays task lifecycle
// events to the participants' private channels.
type BroadcastModule struct {
	cfg       config.Config
	hub       *Hub
	redis     *RedisSink
	sinks     []Sink
	cancelHub context.CancelFunc
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule(cfg config.Config, logger types.Logger) *BroadcastModule {
	hub := NewHub(logger.WithModule("hub"))
	return &BroadcastModule{
		cfg:    cfg,
		hub:    hub,
		sinks:  []Sink{hub},
		logger: logger,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start connects the optional Redis sink and starts the hub.
func (m *BroadcastModule) Start(ctx context.Context) error {
	if m.cfg.RedisAddr != "" {
		sink, err := NewRedisSink(ctx, m.cfg.RedisAddr, m.cfg.RedisPassword)
		if err != nil {
			return err
		}
		m.redis = sink
		m.sinks = append(m.sinks, sink)
		m.logger.Info("Connected to Redis", "addr", m.cfg.RedisAddr)
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(hubCtx)

	m.logger.Info("Module started", "sinks", m.sinkNames())
	return nil
}

// Stop shuts down the hub and closes the Redis connection.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			m.logger.Warn("Error closing Redis connection", "error", err)
		}
	}
	m.logger.Info("Module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"connected_clients": m.hub.ClientCount(),
		"sinks":             m.sinkNames(),
	}
	if m.redis != nil {
		if err := m.redis.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("redis: %v", err),
				Details: details,
			}
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterEventConsumers subscribes to the task lifecycle events.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskCreatedV1, m.handleTaskEvent, m,
	); err != nil {
		return fmt.Errorf("failed to register %s consumer: %w", events.NameTaskCreated, err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskUpdatedV1, m.handleTaskEvent, m,
	); err != nil {
		return fmt.Errorf("failed to register %s consumer: %w", events.NameTaskUpdated, err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskDeletedV1, m.handleTaskEvent, m,
	); err != nil {
		return fmt.Errorf("failed to register %s consumer: %w", events.NameTaskDeleted, err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{events.NameTaskCreated, events.NameTaskUpdated, events.NameTaskDeleted})
	return nil
}

// GetHub returns the websocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

// handleTaskEvent delivers the envelope to every channel on every sink.
// Delivery failures are logged and never returned, so one bad sink does
// not cause redelivery to the others.
func (m *BroadcastModule) handleTaskEvent(ctx context.Context, ev events.TaskLifecycleEvent, _ *mono.Msg) error {
	data, err := EncodeEnvelope(ev)
	if err != nil {
		m.logger.Error("Dropping event", "event", ev.Name, "task_id", ev.Task.ID, "error", err)
		return nil
	}

	for _, channel := range ev.Channels {
		for _, sink := range m.sinks {
			if err := sink.Deliver(ctx, channel, data); err != nil {
				m.logger.Warn("Broadcast delivery failed",
					"event", ev.Name, "task_id", ev.Task.ID, "channel", channel, "sink", sink.Name(), "error", err)
			}
		}
	}
	m.logger.Debug("Broadcast event", "event", ev.Name, "task_id", ev.Task.ID, "channels", ev.Channels)
	return nil
}

func (m *BroadcastModule) sinkNames() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}
