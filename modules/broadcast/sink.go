package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaiodadalt/task-management-system/events"
)

// Sink delivers an encoded envelope to every subscriber of a channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, channel string, data []byte) error
}

// Envelope is the message subscribers receive, in the shape Laravel Echo
// clients expect from the Redis broadcaster.
type Envelope struct {
	Event  string             `json:"event"`
	Data   events.TaskPayload `json:"data"`
	Socket *string            `json:"socket"`
}

// EncodeEnvelope renders the envelope for a lifecycle event.
func EncodeEnvelope(ev events.TaskLifecycleEvent) ([]byte, error) {
	data, err := json.Marshal(Envelope{Event: ev.Name, Data: ev.Task})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", ev.Name, err)
	}
	return data, nil
}
