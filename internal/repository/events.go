package repository

import (
	"context"

	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// EventRepo records todo mutation events for the audit trail.
type EventRepo struct {
	db DB
}

func NewEventRepo(db DB) *EventRepo {
	return &EventRepo{db: db}
}

// Record inserts one event. Duplicate ids (redelivered messages) are ignored.
func (r *EventRepo) Record(ctx context.Context, ev *models.TodoEvent) error {
	db, err := r.db.Get(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO todo_events (id, todo_id, owner_id, action, occurred_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.TodoID, ev.OwnerID, ev.Action, ev.OccurredAt)
	if err != nil {
		logger.Error(ctx, "Repository Record event failed", "error", err, "todo_id", ev.TodoID)
	}
	return err
}
