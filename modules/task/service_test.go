package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() domain.Input {
	return domain.Input{
		Title:    domain.Some("Plan sprint"),
		Status:   domain.Some("pending"),
		Priority: domain.Some("high"),
	}
}

func TestTaskService_Create(t *testing.T) {
	svc, notifier, _ := newTestService(t, newFakeUsers(1, 2))
	ctx := context.Background()

	in := validInput()
	in.AssignedTo = domain.Some(uint(2))
	in.DueDate = domain.Some("2026-03-20")

	task, err := svc.Create(ctx, 1, in)
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.Equal(t, uint(1), task.CreatedBy)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, uint(2), *task.AssignedTo)
	assert.Equal(t, []string{"created"}, notifier.names())
}

func TestTaskService_Create_IgnoresClientCreatedBy(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeUsers(1, 2))

	var in domain.Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Sneaky",
		"status": "pending",
		"priority": "low",
		"created_by": 2
	}`), &in))

	task, err := svc.Create(context.Background(), 1, in)
	require.NoError(t, err)
	assert.Equal(t, uint(1), task.CreatedBy)
}

func TestTaskService_Create_Failures(t *testing.T) {
	svc, notifier, _ := newTestService(t, newFakeUsers(1))
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, validInput())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Create(ctx, 1, domain.Input{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("title"))
	assert.True(t, verr.Has("status"))
	assert.True(t, verr.Has("priority"))

	in := validInput()
	in.AssignedTo = domain.Some(uint(42))
	_, err = svc.Create(ctx, 1, in)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("assigned_to"))

	assert.Empty(t, notifier.names())
}

func TestTaskService_Create_UserLookupFails(t *testing.T) {
	users := newFakeUsers(1)
	users.err = errors.New("auth unavailable")
	svc, _, _ := newTestService(t, users)

	in := validInput()
	in.AssignedTo = domain.Some(uint(2))
	_, err := svc.Create(context.Background(), 1, in)
	require.Error(t, err)

	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestTaskService_Get(t *testing.T) {
	svc, _, db := newTestService(t, newFakeUsers(1, 2, 3))
	ctx := context.Background()
	task := seedTask(t, db, domain.Task{CreatedBy: 1, AssignedTo: uintPtr(2)})

	for _, actor := range []uint{1, 2} {
		got, err := svc.Get(ctx, actor, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	}

	_, err := svc.Get(ctx, 3, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, 1, task.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskService_Update_PartialTitle(t *testing.T) {
	svc, notifier, db := newTestService(t, newFakeUsers(1))
	ctx := context.Background()
	desc := "keep me"
	task := seedTask(t, db, domain.Task{CreatedBy: 1, Title: "Old", Description: &desc, Priority: domain.PriorityUrgent})

	updated, err := svc.Update(ctx, 1, task.ID, domain.Input{Title: domain.Some("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
	assert.Equal(t, domain.PriorityUrgent, updated.Priority)
	assert.Equal(t, domain.StatusPending, updated.Status)

	stored, err := svc.Get(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Title)
	assert.Equal(t, []string{"updated"}, notifier.names())
}

func TestTaskService_Update_NullClearsDescription(t *testing.T) {
	svc, _, db := newTestService(t, newFakeUsers(1))
	ctx := context.Background()
	desc := "to be cleared"
	task := seedTask(t, db, domain.Task{CreatedBy: 1, Description: &desc})

	var in domain.Input
	require.NoError(t, json.Unmarshal([]byte(`{"description": null}`), &in))

	updated, err := svc.Update(ctx, 1, task.ID, in)
	require.NoError(t, err)
	assert.Nil(t, updated.Description)

	stored, err := svc.Get(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Description)
}

func TestTaskService_Update_ResolveAuthorizeValidateOrder(t *testing.T) {
	svc, notifier, db := newTestService(t, newFakeUsers(1, 2))
	ctx := context.Background()
	task := seedTask(t, db, domain.Task{CreatedBy: 1, AssignedTo: uintPtr(2)})
	invalid := domain.Input{Status: domain.Some("bogus")}

	_, err := svc.Update(ctx, 1, task.ID+100, invalid)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The assignee can view but not update, even with invalid input.
	_, err = svc.Update(ctx, 2, task.ID, invalid)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, 1, task.ID, invalid)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("status"))

	_, err = svc.Update(ctx, 1, task.ID, domain.Input{AssignedTo: domain.Some(uint(99))})
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("assigned_to"))

	assert.Empty(t, notifier.names())
}

func TestTaskService_Delete(t *testing.T) {
	svc, notifier, db := newTestService(t, newFakeUsers(1, 2))
	ctx := context.Background()
	task := seedTask(t, db, domain.Task{CreatedBy: 1, AssignedTo: uintPtr(2), Title: "Gone soon"})

	assert.ErrorIs(t, svc.Delete(ctx, 2, task.ID), domain.ErrForbidden)
	_, err := svc.Get(ctx, 1, task.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, task.ID))
	_, err = svc.Get(ctx, 1, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1, task.ID), domain.ErrNotFound)

	require.Equal(t, []string{"deleted"}, notifier.names())
	snapshot := notifier.calls[0].task
	assert.Equal(t, task.ID, snapshot.ID)
	assert.Equal(t, "Gone soon", snapshot.Title)
	require.NotNil(t, snapshot.AssignedTo)
	assert.Equal(t, uint(2), *snapshot.AssignedTo)
}

func TestTaskService_Search(t *testing.T) {
	svc, _, db := newTestService(t, newFakeUsers(1, 2))
	ctx := context.Background()
	seedTask(t, db, domain.Task{CreatedBy: 1, Status: domain.StatusCompleted})
	seedTask(t, db, domain.Task{CreatedBy: 2, AssignedTo: uintPtr(1), Status: domain.StatusPending})
	seedTask(t, db, domain.Task{CreatedBy: 2, Status: domain.StatusCompleted})

	page, err := svc.Search(ctx, 1, SearchQuery{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, uint(1), page.Items[0].CreatedBy)

	_, err = svc.Search(ctx, 1, SearchQuery{PerPage: "500"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("per_page"))

	_, err = svc.Search(ctx, 0, SearchQuery{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEncodeDecodeFailure(t *testing.T) {
	for _, sentinel := range []error{domain.ErrNotFound, domain.ErrForbidden, domain.ErrUnauthenticated} {
		encoded, err := encodeFailure(sentinel)
		require.NoError(t, err)
		assert.ErrorIs(t, decodeFailure(encoded), sentinel)
	}

	encoded, err := encodeFailure(domain.NewValidationError("title", "The title field is required."))
	require.NoError(t, err)
	assert.Equal(t, CodeValidationFailed, encoded.Code)
	var verr *domain.ValidationError
	require.ErrorAs(t, decodeFailure(encoded), &verr)
	assert.Equal(t, []string{"The title field is required."}, verr.Fields["title"])

	boom := errors.New("disk full")
	encoded, err = encodeFailure(boom)
	assert.Nil(t, encoded)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, decodeFailure(nil))
}
