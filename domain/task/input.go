package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

// MaxTitleLength is the title limit in UTF-16 code units.
const MaxTitleLength = 255

// dateLayouts are accepted for due dates and search bounds.
var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// Input is the client-supplied field set for create and update. Fields
// are Optional so a partial update can tell absent from explicit null.
// created_by has no field here: it always comes from the actor.
type Input struct {
	Title       Optional[string] `json:"title,omitzero"`
	Description Optional[string] `json:"description,omitzero"`
	Status      Optional[string] `json:"status,omitzero"`
	Priority    Optional[string] `json:"priority,omitzero"`
	DueDate     Optional[string] `json:"due_date,omitzero"`
	AssignedTo  Optional[uint]   `json:"assigned_to,omitzero"`
}

// ParseDate parses a date or timestamp in any accepted layout. Values
// without a zone are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// NewTask validates in as a create request and builds the task owned by
// actorID. now supplies the reference date for due-date checks.
func NewTask(actorID uint, in Input, now time.Time) (Task, error) {
	verr := &ValidationError{}
	for field, opt := range map[string]Optional[string]{
		"title":    in.Title,
		"status":   in.Status,
		"priority": in.Priority,
	} {
		if _, ok := opt.Get(); !ok {
			verr.Add(field, fmt.Sprintf("The %s field is required.", field))
		}
	}

	t := Task{CreatedBy: actorID}
	apply(&t, in, now, verr)
	if err := verr.Err(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Merge validates the fields present in in and returns a copy of t with
// them applied. Absent fields keep their value, explicit nulls clear
// nullable fields. t is never modified.
func (t Task) Merge(in Input, now time.Time) (Task, error) {
	verr := &ValidationError{}
	merged := t.Snapshot()
	apply(&merged, in, now, verr)
	if err := verr.Err(); err != nil {
		return Task{}, err
	}
	return merged, nil
}

func apply(t *Task, in Input, now time.Time, verr *ValidationError) {
	if in.Title.IsSet() && !verr.Has("title") {
		title, _ := in.Title.Get()
		switch {
		case strings.TrimSpace(title) == "":
			verr.Add("title", "The title field is required.")
		case len(utf16.Encode([]rune(title))) > MaxTitleLength:
			verr.Add("title", fmt.Sprintf("The title field must not be greater than %d characters.", MaxTitleLength))
		default:
			t.Title = title
		}
	}

	if in.Description.IsSet() {
		if d, ok := in.Description.Get(); ok {
			t.Description = &d
		} else {
			t.Description = nil
		}
	}

	if in.Status.IsSet() && !verr.Has("status") {
		raw, ok := in.Status.Get()
		if !ok {
			verr.Add("status", "The status field is required.")
		} else if s, err := ParseStatus(raw); err != nil {
			verr.Add("status", "The selected status is invalid.")
		} else {
			t.Status = s
		}
	}

	if in.Priority.IsSet() && !verr.Has("priority") {
		raw, ok := in.Priority.Get()
		if !ok {
			verr.Add("priority", "The priority field is required.")
		} else if p, err := ParsePriority(raw); err != nil {
			verr.Add("priority", "The selected priority is invalid.")
		} else {
			t.Priority = p
		}
	}

	if in.DueDate.IsSet() {
		raw, ok := in.DueDate.Get()
		if !ok {
			t.DueDate = nil
		} else if due, err := ParseDate(raw, now.Location()); err != nil {
			verr.Add("due_date", "The due date field must be a valid date.")
		} else if due.Before(StartOfDay(now)) {
			verr.Add("due_date", "The due date field must be a date after or equal to today.")
		} else {
			due = due.UTC()
			t.DueDate = &due
		}
	}

	if in.AssignedTo.IsSet() {
		if id, ok := in.AssignedTo.Get(); !ok {
			t.AssignedTo = nil
		} else if id == 0 {
			verr.Add("assigned_to", "The selected assigned to is invalid.")
		} else {
			t.AssignedTo = &id
		}
	}
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
