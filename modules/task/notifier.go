package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/events"
)

// Notifier receives committed task mutations.
type Notifier interface {
	TaskCreated(t domain.Task)
	TaskUpdated(t domain.Task)
	TaskDeleted(t domain.Task)
}

// PublishFunc delivers one lifecycle event.
type PublishFunc func(ev events.TaskLifecycleEvent) error

// BusPublisher publishes lifecycle events on the mono event bus.
func BusPublisher(bus mono.EventBus) PublishFunc {
	return func(ev events.TaskLifecycleEvent) error {
		switch ev.Name {
		case events.NameTaskCreated:
			return events.TaskCreatedV1.Publish(bus, ev, nil)
		case events.NameTaskUpdated:
			return events.TaskUpdatedV1.Publish(bus, ev, nil)
		case events.NameTaskDeleted:
			return events.TaskDeletedV1.Publish(bus, ev, nil)
		default:
			return fmt.Errorf("unknown task event %q", ev.Name)
		}
	}
}

// Dispatcher is a Notifier that hands events to a single worker goroutine
// through a bounded queue. Enqueueing never blocks: when the queue is
// full the event is dropped.
type Dispatcher struct {
	queue   chan events.TaskLifecycleEvent
	publish PublishFunc
	logger  types.Logger
	now     func() time.Time

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with room for buffer pending events.
func NewDispatcher(buffer int, publish PublishFunc, logger types.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		queue:   make(chan events.TaskLifecycleEvent, buffer),
		publish: publish,
		logger:  logger,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.run()
}

// Stop closes the queue and waits for the worker to deliver what is left,
// or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifier did not drain: %w", ctx.Err())
	}
}

// TaskCreated implements Notifier.
func (d *Dispatcher) TaskCreated(t domain.Task) {
	d.enqueue(events.NewTaskLifecycleEvent(events.NameTaskCreated, t, d.now()))
}

// TaskUpdated implements Notifier.
func (d *Dispatcher) TaskUpdated(t domain.Task) {
	d.enqueue(events.NewTaskLifecycleEvent(events.NameTaskUpdated, t, d.now()))
}

// TaskDeleted implements Notifier.
func (d *Dispatcher) TaskDeleted(t domain.Task) {
	d.enqueue(events.NewTaskLifecycleEvent(events.NameTaskDeleted, t, d.now()))
}

// enqueue reports whether ev was accepted.
func (d *Dispatcher) enqueue(ev events.TaskLifecycleEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Notifier stopped, dropping event", "event", ev.Name, "task_id", ev.Task.ID)
		return false
	}
	select {
	case d.queue <- ev:
		return true
	default:
		d.logger.Warn("Notifier queue full, dropping event", "event", ev.Name, "task_id", ev.Task.ID)
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev events.TaskLifecycleEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic while publishing event", "event", ev.Name, "task_id", ev.Task.ID, "panic", r)
		}
	}()
	if err := d.publish(ev); err != nil {
		d.logger.Warn("Failed to publish event", "event", ev.Name, "task_id", ev.Task.ID, "error", err)
		return
	}
	d.logger.Debug("Published event", "event", ev.Name, "task_id", ev.Task.ID, "channels", ev.Channels)
}
