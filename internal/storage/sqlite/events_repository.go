package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eventnest/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	conn *sql.Conn
}

const eventColumns = `id, title, description, location, max_participants, organizer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var e events.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.MaxParticipants, &e.OrganizerID)
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (_ *events.Event, err error) {
	start := time.Now()
	defer func() { observe("create_event", start, err) }()

	e, err := scanEvent(r.conn.QueryRowContext(ctx,
		`INSERT INTO events (title, description, location, max_participants, organizer_id)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+eventColumns,
		params.Title, params.Description, params.Location, params.MaxParticipants, params.OrganizerID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	start := time.Now()
	defer func() { observe("find_event", start, err) }()

	e, err := scanEvent(r.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
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

	rows, err := r.conn.QueryContext(ctx, `SELECT `+eventColumns+` FROM events`)
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

	e, err := scanEvent(r.conn.QueryRowContext(ctx,
		`UPDATE events SET title = ?, description = ?, location = ?, max_participants = ?
		 WHERE id = ?
		 RETURNING `+eventColumns,
		event.Title, event.Description, event.Location, event.MaxParticipants, event.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
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

	result, err := r.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) OrganizerExists(ctx context.Context, accountID int64) (_ bool, err error) {
	start := time.Now()
	defer func() { observe("find_organizer", start, err) }()

	var exists bool
	err = r.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, accountID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organizer: %w", err)
	}
	return exists, nil
}
