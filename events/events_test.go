package events

import (
	"encoding/json"
	"testing"
	"time"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelsFor(t *testing.T) {
	two, one := uint(2), uint(1)
	tests := []struct {
		name string
		task domain.Task
		want []string
	}{
		{"creator only", domain.Task{CreatedBy: 1}, []string{"private-App.Domain.User.1"}},
		{"creator and assignee", domain.Task{CreatedBy: 1, AssignedTo: &two}, []string{"private-App.Domain.User.1", "private-App.Domain.User.2"}},
		{"self assigned", domain.Task{CreatedBy: 1, AssignedTo: &one}, []string{"private-App.Domain.User.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChannelsFor(tt.task))
		})
	}
}

func TestParseUserChannel(t *testing.T) {
	id, ok := ParseUserChannel(UserChannel(17))
	assert.True(t, ok)
	assert.Equal(t, uint(17), id)

	for _, bad := range []string{"", "private-App.Domain.User.", "private-App.Domain.User.0", "private-App.Domain.User.x", "App.Domain.User.3", "presence-App.Domain.User.3"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}

	assert.True(t, CanSubscribe(3, "private-App.Domain.User.3"))
	assert.False(t, CanSubscribe(4, "private-App.Domain.User.3"))
}

func TestNewTaskLifecycleEvent(t *testing.T) {
	desc := "d"
	assignee := uint(9)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := domain.Task{
		ID: 3, CreatedBy: 1, AssignedTo: &assignee, Title: "T", Description: &desc,
		Status: domain.StatusInProgress, Priority: domain.PriorityUrgent,
		CreatedAt: created, UpdatedAt: created,
	}

	ev := NewTaskLifecycleEvent(NameTaskDeleted, task, created)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, []string{UserChannel(1), UserChannel(9)}, ev.Channels)

	// The payload must not alias the source task.
	desc = "changed"
	require.NotNil(t, ev.Task.Description)
	assert.Equal(t, "d", *ev.Task.Description)

	data, err := json.Marshal(ev.Task)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 3, "created_by": 1, "assigned_to": 9, "title": "T", "description": "d",
		"status": "in_progress", "priority": "urgent", "due_date": null,
		"created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:05Z"
	}`, string(data))
}
