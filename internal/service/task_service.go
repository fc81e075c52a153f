package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Roroshi7/TaskManager/internal/cache"
	dom "github.com/Roroshi7/TaskManager/internal/domain"
	"github.com/Roroshi7/TaskManager/internal/repo"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound covers both a missing task and a task owned by someone
	// else: callers cannot tell the two apart.
	ErrNotFound = errors.New("task not found")
	// ErrValidation means bad input shape or an out-of-set enum value.
	ErrValidation = errors.New("invalid task input")
)

// CreateTaskInput carries the creatable fields. Status and Priority default to
// todo/medium when empty.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      dom.Status
	Priority    dom.Priority
	DueDate     *time.Time
}

// UpdateTaskInput is a partial update; nil fields stay untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *dom.Status
	Priority    *dom.Priority
	DueDate     *time.Time
	SetDueDate  bool
}

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

// Create inserts a task for owner. Owner always comes from the caller's
// verified identity, never from request data.
func (s *TaskService) Create(ctx context.Context, owner uuid.UUID, in CreateTaskInput) (dom.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return dom.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = dom.StatusTodo
	}
	if !status.Valid() {
		return dom.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	priority := in.Priority
	if priority == "" {
		priority = dom.PriorityMedium
	}
	if !priority.Valid() {
		return dom.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	t, err := s.repo.Create(ctx, dom.Task{
		OwnerID:     owner,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, owner)
	return t, nil
}

// List returns all of owner's tasks, newest first. Reads go through the cache
// with a singleflight guard so a cold key triggers one store query.
func (s *TaskService) List(ctx context.Context, owner uuid.UUID) ([]dom.Task, error) {
	if s.cache != nil {
		key := "list:" + owner.String()
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, owner); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, owner)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, owner, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.List(ctx, owner)
}

func (s *TaskService) GetByID(ctx context.Context, owner, id uuid.UUID) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// Update applies only the fields present in the input and returns the updated
// task. ID, owner and createdAt are immutable; updatedAt refreshes whenever at
// least one field is written.
func (s *TaskService) Update(ctx context.Context, owner, id uuid.UUID, in UpdateTaskInput) (dom.Task, error) {
	patch := repo.TaskPatch{
		Description: in.Description,
		DueDate:     in.DueDate,
		SetDueDate:  in.SetDueDate,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return dom.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		patch.Title = &title
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return dom.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		patch.Status = in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return dom.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		patch.Priority = in.Priority
	}

	// An empty patch changes nothing: serve it as a read so updatedAt only
	// moves on an actual mutation.
	if patch.Empty() {
		return s.GetByID(ctx, owner, id)
	}

	t, err := s.repo.Update(ctx, owner, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, owner)
	return t, nil
}

// Delete permanently removes the task. No tombstone is kept.
func (s *TaskService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, owner)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context, owner uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, owner)
	}
}
