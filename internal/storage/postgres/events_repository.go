package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventnest/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	db queryer
}

const eventColumns = `id, title, description, location, max_participants, organizer_id`

func scanEvent(row pgx.Row) (events.Event, error) {
	var e events.Event
	var maxParticipants int64
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &maxParticipants, &e.OrganizerID)
	e.MaxParticipants = int(maxParticipants)
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (_ *events.Event, err error) {
	start := time.Now()
	defer func() { observe("create_event", start, err) }()

	e, err := scanEvent(r.db.QueryRow(ctx,
		`INSERT INTO events (title, description, location, max_participants, organizer_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+eventColumns,
		params.Title, params.Description, params.Location, int64(params.MaxParticipants), params.OrganizerID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	start := time.Now()
	defer func() { observe("find_event", start, err) }()

	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select event: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) List(ctx context.Context) (_ []events.Event, err error) {
	start := time.Now()
	defer func() { observe("list_events", start, err) }()

	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) Save(ctx context.Context, event events.Event) (_ *events.Event, err error) {
	start := time.Now()
	defer func() { observe("save_event", start, err) }()

	e, err := scanEvent(r.db.QueryRow(ctx,
		`UPDATE events SET title = $2, description = $3, location = $4, max_participants = $5
		 WHERE id = $1
		 RETURNING `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, int64(event.MaxParticipants),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete_event", start, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) OrganizerExists(ctx context.Context, accountID int64) (_ bool, err error) {
	start := time.Now()
	defer func() { observe("find_organizer", start, err) }()

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organizer: %w", err)
	}
	return exists, nil
}
