package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/krishnaqnq/todo/internal/apperr"
	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// tempIDPrefix marks item ids minted client-side during optimistic creation.
// They are stripped and replaced with store-issued ids before persistence.
const tempIDPrefix = "temp_"

const defaultTitle = "Untitled Todo"

// CreateTodoInput is the caller-supplied part of a new todo. The owner is
// stamped separately from the authenticated identity, never from the input.
type CreateTodoInput struct {
	Title      string
	TargetDate *time.Time
	Items      []models.Item
}

// TodoPatch carries the fields of an update. Nil fields are retained;
// a non-nil Items slice replaces the whole stored array.
type TodoPatch struct {
	Title      *string
	TargetDate *time.Time
	Items      *[]models.Item
}

// TodoRepo persists todo documents. Items are embedded as a JSONB column, so
// each todo reads and writes as one atomically-replaced row.
type TodoRepo struct {
	db DB
}

func NewTodoRepo(db DB) *TodoRepo {
	return &TodoRepo{db: db}
}

const todoColumns = `id, owner_id, title, target_date, items, created_at, updated_at`

// List returns all todos owned by ownerID, newest first.
func (r *TodoRepo) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		logger.Error(ctx, "Repository List todos failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			logger.Error(ctx, "Repository scan todo failed", "error", err)
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

// Get returns the todo with the given id if ownerID owns it, else nil. A todo
// owned by someone else is indistinguishable from one that does not exist.
func (r *TodoRepo) Get(ctx context.Context, id, ownerID string) (*models.Todo, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository Get todo failed", "error", err, "id", id)
		return nil, err
	}
	return t, nil
}

// Create inserts a new todo stamped with ownerID.
func (r *TodoRepo) Create(ctx context.Context, ownerID string, input CreateTodoInput) (*models.Todo, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	items, err := normalizeItems(nil, input.Items, now)
	if err != nil {
		return nil, err
	}
	title := input.Title
	if title == "" {
		title = defaultTitle
	}
	todo := &models.Todo{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Title:      title,
		TargetDate: normalizeDate(input.TargetDate),
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	raw, err := json.Marshal(todo.Items)
	if err != nil {
		return nil, err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO todos (id, owner_id, title, target_date, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		todo.ID, todo.OwnerID, todo.Title, todo.TargetDate, raw, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		logger.Error(ctx, "Repository Create todo failed", "error", err)
		return nil, err
	}
	return todo, nil
}

// Update applies patch to the todo if ownerID owns it and returns the result,
// or nil when the todo is absent or foreign.
//
// The merge is destructive for items: a provided array entirely supersedes
// the stored one, so items omitted from it are deleted. Concurrent updates to
// the same todo are last-write-wins at the document level.
func (r *TodoRepo) Update(ctx context.Context, id, ownerID string, patch TodoPatch) (*models.Todo, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	todo, err := r.Get(ctx, id, ownerID)
	if err != nil || todo == nil {
		return nil, err
	}
	now := time.Now().UTC()
	if patch.Title != nil {
		todo.Title = *patch.Title
		if todo.Title == "" {
			todo.Title = defaultTitle
		}
	}
	if patch.TargetDate != nil {
		todo.TargetDate = normalizeDate(patch.TargetDate)
	}
	if patch.Items != nil {
		items, err := normalizeItems(todo.Items, *patch.Items, now)
		if err != nil {
			return nil, err
		}
		todo.Items = items
	}
	todo.UpdatedAt = now
	raw, err := json.Marshal(todo.Items)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE todos SET title = $1, target_date = $2, items = $3, updated_at = $4
		 WHERE id = $5 AND owner_id = $6`,
		todo.Title, todo.TargetDate, raw, todo.UpdatedAt, id, ownerID)
	if err != nil {
		logger.Error(ctx, "Repository Update todo failed", "error", err, "id", id)
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return todo, nil
}

// Delete removes the todo if ownerID owns it, reporting whether a row went.
func (r *TodoRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		logger.Error(ctx, "Repository Delete todo failed", "error", err, "id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// normalizeItems produces the stored item array from an incoming one. Items
// carrying a temp_ placeholder (or no id) get a store-issued id and a
// createdAt stamp; items matched to existing ids keep their original
// createdAt. Status defaults to ETS, dates are normalized to UTC.
func normalizeItems(existing, incoming []models.Item, now time.Time) ([]models.Item, error) {
	byID := make(map[string]models.Item, len(existing))
	for _, it := range existing {
		byID[it.ID] = it
	}
	out := make([]models.Item, 0, len(incoming))
	for _, it := range incoming {
		if it.ID == "" || strings.HasPrefix(it.ID, tempIDPrefix) {
			it.ID = uuid.New().String()
			if it.CreatedAt.IsZero() {
				it.CreatedAt = now
			}
		} else if prev, ok := byID[it.ID]; ok {
			it.CreatedAt = prev.CreatedAt
		} else if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if it.Status == "" {
			it.Status = models.StatusETS
		}
		if !it.Status.Valid() {
			return nil, apperr.Validation("Invalid item status: " + string(it.Status))
		}
		it.CreatedAt = it.CreatedAt.UTC()
		it.TargetDate = normalizeDate(it.TargetDate)
		out = append(out, it)
	}
	return out, nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var (
		t      models.Todo
		target sql.NullTime
		raw    []byte
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &target, &raw, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if target.Valid {
		d := target.Time
		t.TargetDate = &d
	}
	t.Items = []models.Item{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &t.Items); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
