package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
	"github.com/Roroshi7/TaskManager/internal/repo"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskRepo is an in-memory TaskRepo with a stepping clock so updatedAt
// visibly advances between writes.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]dom.Task
	clock time.Time
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks: make(map[uuid.UUID]dom.Task),
		clock: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (r *fakeTaskRepo) now() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.Must(uuid.NewV4())
	now := r.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, owner uuid.UUID) ([]dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dom.Task
	for _, t := range r.tasks {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].CreatedAt.Before(out[i].CreatedAt) })
	return out, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, owner, id uuid.UUID) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != owner {
		return dom.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, owner, id uuid.UUID, patch repo.TaskPatch) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != owner {
		return dom.Task{}, pgx.ErrNoRows
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.SetDueDate {
		t.DueDate = patch.DueDate
	}
	t.UpdatedAt = r.now()
	r.tasks[id] = t
	return t, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, owner, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != owner {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func newOwner(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.Must(uuid.NewV4())
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	owner := newOwner(t)

	created, err := svc.Create(context.Background(), owner, CreateTaskInput{Title: "A", Priority: dom.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, dom.StatusTodo, created.Status)
	assert.Equal(t, dom.PriorityHigh, created.Priority)
	assert.False(t, created.CreatedAt.After(created.UpdatedAt))

	got, err := svc.GetByID(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, dom.StatusTodo, got.Status)
	assert.Equal(t, dom.PriorityHigh, got.Priority)
}

func TestCreateValidation(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	owner := newOwner(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: ""}},
		{"whitespace title", CreateTaskInput{Title: "   "}},
		{"bad status", CreateTaskInput{Title: "A", Status: "done"}},
		{"bad priority", CreateTaskInput{Title: "A", Priority: "urgent"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	alice := newOwner(t)
	bob := newOwner(t)

	created, err := svc.Create(ctx, alice, CreateTaskInput{Title: "private"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	title := "stolen"
	_, err = svc.Update(ctx, bob, created.ID, UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Still intact for the real owner.
	got, err := svc.GetByID(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestUpdatePartialFields(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	created, err := svc.Create(ctx, owner, CreateTaskInput{Title: "write report", Description: "quarterly"})
	require.NoError(t, err)

	status := dom.StatusCompleted
	updated, err := svc.Update(ctx, owner, created.ID, UpdateTaskInput{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, dom.StatusCompleted, updated.Status)
	assert.Equal(t, "write report", updated.Title)
	assert.Equal(t, "quarterly", updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateValidation(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	created, err := svc.Create(ctx, owner, CreateTaskInput{Title: "A"})
	require.NoError(t, err)

	empty := "  "
	_, err = svc.Update(ctx, owner, created.ID, UpdateTaskInput{Title: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	bad := dom.Status("archived")
	_, err = svc.Update(ctx, owner, created.ID, UpdateTaskInput{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateEmptyPatchLeavesTaskUntouched(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	created, err := svc.Create(ctx, owner, CreateTaskInput{Title: "A"})
	require.NoError(t, err)

	got, err := svc.Update(ctx, owner, created.ID, UpdateTaskInput{})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, "A", got.Title)

	// Ownership scoping still applies to the no-op path.
	_, err = svc.Update(ctx, owner, uuid.Must(uuid.NewV4()), UpdateTaskInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateClearsDueDate(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, owner, CreateTaskInput{Title: "A", DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)

	updated, err := svc.Update(ctx, owner, created.ID, UpdateTaskInput{SetDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
}

func TestListNewestFirst(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, owner, CreateTaskInput{Title: title})
		require.NoError(t, err)
	}
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestDeleteIdempotence(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	created, err := svc.Create(ctx, owner, CreateTaskInput{Title: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, created.ID), ErrNotFound)
}

func TestDeleteNonexistentLeavesStoreUnchanged(t *testing.T) {
	svc := NewTaskService(newFakeTaskRepo(), nil)
	ctx := context.Background()
	owner := newOwner(t)

	_, err := svc.Create(ctx, owner, CreateTaskInput{Title: "keep me"})
	require.NoError(t, err)

	err = svc.Delete(ctx, owner, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
