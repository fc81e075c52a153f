package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
	"github.com/Roroshi7/TaskManager/internal/store"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
)

// TaskPatch is a partial update: nil fields are left untouched. SetDueDate
// distinguishes "clear the due date" (true, DueDate nil) from "don't touch it".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *dom.Status
	Priority    *dom.Priority
	DueDate     *time.Time
	SetDueDate  bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && !p.SetDueDate
}

type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	List(ctx context.Context, owner uuid.UUID) ([]dom.Task, error)
	GetByID(ctx context.Context, owner, id uuid.UUID) (dom.Task, error)
	Update(ctx context.Context, owner, id uuid.UUID, patch TaskPatch) (dom.Task, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

const taskColumns = `id, owner_id, title, description, status, priority, due_date, created_at, updated_at`

type PGTaskRepo struct {
	store *store.Manager
}

func NewPGTaskRepo(m *store.Manager) *PGTaskRepo {
	return &PGTaskRepo{store: m}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return dom.Task{}, fmt.Errorf("new task id: %w", err)
	}
	query := `
		INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns
	var out dom.Task
	err = db.QueryRow(ctx, query, id, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueDate).Scan(
		&out.ID, &out.OwnerID, &out.Title, &out.Description, &out.Status, &out.Priority,
		&out.DueDate, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func (r *PGTaskRepo) List(ctx context.Context, owner uuid.UUID) ([]dom.Task, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + taskColumns + `
		FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := db.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) GetByID(ctx context.Context, owner, id uuid.UUID) (dom.Task, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	query := `
		SELECT ` + taskColumns + `
		FROM tasks WHERE owner_id = $1 AND id = $2`
	var t dom.Task
	err = db.QueryRow(ctx, query, owner, id).Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Update applies the patch in a single UPDATE so concurrent writers see either
// the whole change or none of it.
func (r *PGTaskRepo) Update(ctx context.Context, owner, id uuid.UUID, patch TaskPatch) (dom.Task, error) {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return dom.Task{}, err
	}

	set := []string{"updated_at = NOW()"}
	args := []any{owner, id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.SetDueDate {
		add("due_date", patch.DueDate)
	}

	query := `
		UPDATE tasks SET ` + strings.Join(set, ", ") + `
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + taskColumns
	var t dom.Task
	err = db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	db, err := r.store.EnsureConnected(ctx)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
