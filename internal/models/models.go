package models

import "time"

// ItemStatus is the workflow state of a single todo item.
type ItemStatus string

const (
	StatusETS        ItemStatus = "ETS"
	StatusInProgress ItemStatus = "IN_PROGRESS"
	StatusCompleted  ItemStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusETS, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// User is a registered account. PasswordHash, ResetToken and ResetTokenExpiry
// are secret fields: they are only populated by the WithSecrets repository
// reads and are never serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`

	PasswordHash     string     `json:"-"`
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

// Todo is one user-owned todo document with its embedded items.
type Todo struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Title      string     `json:"title"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
	Items      []Item     `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Item lives only inside its owning Todo. The ID is issued by the store and
// stable across updates; client-side temp_ placeholders never persist.
type Item struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Notes      string     `json:"notes,omitempty"`
	Points     *float64   `json:"points,omitempty"`
	Links      []string   `json:"links,omitempty"`
	Images     []string   `json:"images,omitempty"`
	Status     ItemStatus `json:"status"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TodoEvent is the message payload published after a successful todo
// mutation and recorded by the audit worker.
type TodoEvent struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"` // create, update, delete
	TodoID     string    `json:"todo_id"`
	OwnerID    string    `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
