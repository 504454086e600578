package events

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("event not found")
	ErrOrganizerNotFound = errors.New("organizer not found")
)

type Event struct {
	ID              int64
	Title           string
	Description     string
	Location        string
	MaxParticipants int
	OrganizerID     int64
}

type CreateParams struct {
	Title           string
	Description     string
	Location        string
	MaxParticipants int
	OrganizerID     int64
}

// UpdateParams carries the fields supplied by the caller. Nil, empty and
// zero values leave the stored field unchanged. The organizer is fixed at
// creation.
type UpdateParams struct {
	Title           *string
	Description     *string
	Location        *string
	MaxParticipants *int
}

// Repository is bound to a single storage session.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	FindByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, event Event) (*Event, error)
	Delete(ctx context.Context, id int64) error
	OrganizerExists(ctx context.Context, accountID int64) (bool, error)
}

type SessionProvider interface {
	WithEvents(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
