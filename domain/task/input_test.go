package task

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func decodeInput(t *testing.T, body string) Input {
	t.Helper()
	var in Input
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Contains(t, verr.Fields, field)
}

func TestNewTask(t *testing.T) {
	in := decodeInput(t, `{
		"title": "Write report",
		"description": "Quarterly numbers",
		"status": "pending",
		"priority": "medium",
		"due_date": "2026-03-17",
		"assigned_to": 2,
		"created_by": 99
	}`)

	got, err := NewTask(1, in, now)
	require.NoError(t, err)

	assert.Equal(t, uint(1), got.CreatedBy)
	assert.Equal(t, "Write report", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Quarterly numbers", *got.Description)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PriorityMedium, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-03-17", got.DueDate.Format(time.DateOnly))
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, uint(2), *got.AssignedTo)
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"status":"pending","priority":"low"}`, "title"},
		{"blank title", `{"title":"   ","status":"pending","priority":"low"}`, "title"},
		{"null title", `{"title":null,"status":"pending","priority":"low"}`, "title"},
		{"long title", `{"title":"` + strings.Repeat("a", 256) + `","status":"pending","priority":"low"}`, "title"},
		{"missing status", `{"title":"x","priority":"low"}`, "status"},
		{"unknown status", `{"title":"x","status":"done","priority":"low"}`, "status"},
		{"missing priority", `{"title":"x","status":"pending"}`, "priority"},
		{"unknown priority", `{"title":"x","status":"pending","priority":"critical"}`, "priority"},
		{"past due date", `{"title":"x","status":"pending","priority":"low","due_date":"2026-03-09"}`, "due_date"},
		{"malformed due date", `{"title":"x","status":"pending","priority":"low","due_date":"next week"}`, "due_date"},
		{"zero assignee", `{"title":"x","status":"pending","priority":"low","assigned_to":0}`, "assigned_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(1, decodeInput(t, tt.body), now)
			requireFieldError(t, err, tt.field)
		})
	}
}

func TestNewTask_TitleLengthCountsCodeUnits(t *testing.T) {
	// Each emoji is two UTF-16 code units.
	title := strings.Repeat("😀", 128)
	_, err := NewTask(1, Input{
		Title:    Some(title),
		Status:   Some("pending"),
		Priority: Some("low"),
	}, now)
	requireFieldError(t, err, "title")

	_, err = NewTask(1, Input{
		Title:    Some(strings.Repeat("😀", 127)),
		Status:   Some("pending"),
		Priority: Some("low"),
	}, now)
	assert.NoError(t, err)
}

func TestNewTask_DueDateToday(t *testing.T) {
	_, err := NewTask(1, Input{
		Title:    Some("x"),
		Status:   Some("pending"),
		Priority: Some("low"),
		DueDate:  Some("2026-03-10"),
	}, now)
	assert.NoError(t, err, "a due date of today is allowed regardless of time of day")
}

func TestMerge_PartialUpdate(t *testing.T) {
	desc := "keep me"
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	orig := Task{
		ID:          5,
		CreatedBy:   1,
		AssignedTo:  uintPtr(2),
		Title:       "Old",
		Description: &desc,
		Status:      StatusInProgress,
		Priority:    PriorityHigh,
		DueDate:     &due,
	}

	merged, err := orig.Merge(decodeInput(t, `{"title":"X"}`), now)
	require.NoError(t, err)

	want := orig.Snapshot()
	want.Title = "X"
	assert.Equal(t, want, merged)
	assert.Equal(t, "Old", orig.Title, "receiver must not be modified")
}

func TestMerge_ExplicitNullClears(t *testing.T) {
	desc := "something"
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	orig := Task{CreatedBy: 1, AssignedTo: uintPtr(2), Title: "t", Description: &desc, DueDate: &due, Status: StatusPending, Priority: PriorityLow}

	merged, err := orig.Merge(decodeInput(t, `{"description":null,"due_date":null,"assigned_to":null}`), now)
	require.NoError(t, err)
	assert.Nil(t, merged.Description)
	assert.Nil(t, merged.DueDate)
	assert.Nil(t, merged.AssignedTo)
	assert.NotNil(t, orig.Description)
}

func TestMerge_RejectsNullRequiredFields(t *testing.T) {
	orig := Task{CreatedBy: 1, Title: "t", Status: StatusPending, Priority: PriorityLow}
	for _, field := range []string{"title", "status", "priority"} {
		t.Run(field, func(t *testing.T) {
			_, err := orig.Merge(decodeInput(t, `{"`+field+`":null}`), now)
			requireFieldError(t, err, field)
		})
	}
}

func TestMerge_RejectsPastDueDate(t *testing.T) {
	orig := Task{CreatedBy: 1, Title: "t", Status: StatusPending, Priority: PriorityLow}
	_, err := orig.Merge(Input{DueDate: Some("2020-01-01")}, now)
	requireFieldError(t, err, "due_date")
}

func TestOptional_RoundTrip(t *testing.T) {
	in := decodeInput(t, `{"title":"a","description":null}`)
	assert.True(t, in.Title.IsSet())
	assert.True(t, in.Description.IsNull())
	assert.False(t, in.Status.IsSet())

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a","description":null}`, string(data))

	var back Input
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, in, back)
}

func TestStatus_ValueRejectsUnmapped(t *testing.T) {
	_, err := Status("archived").Value()
	assert.Error(t, err)

	v, err := StatusCompleted.Value()
	require.NoError(t, err)
	assert.Equal(t, "completed", v)

	var p Priority
	assert.Error(t, p.Scan("critical"))
	require.NoError(t, p.Scan([]byte("urgent")))
	assert.Equal(t, PriorityUrgent, p)
}
