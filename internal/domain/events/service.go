package events

import (
	"context"
	"fmt"

	"github.com/eventnest/server/internal/domain/partial"
	"github.com/rs/zerolog"
)

type Service struct {
	sessions SessionProvider
	logger   zerolog.Logger
}

func NewService(sessions SessionProvider, logger zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// Create checks that the organizer exists before inserting. Nothing is
// written when it does not.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	var created *Event
	err := s.sessions.WithEvents(ctx, func(ctx context.Context, repo Repository) error {
		exists, err := repo.OrganizerExists(ctx, params.OrganizerID)
		if err != nil {
			return fmt.Errorf("create event: lookup organizer %d: %w", params.OrganizerID, err)
		}
		if !exists {
			return fmt.Errorf("create event: organizer %d: %w", params.OrganizerID, ErrOrganizerNotFound)
		}

		event, err := repo.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		created = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("event_id", created.ID).
		Int64("organizer_id", created.OrganizerID).
		Msg("event created")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	var found *Event
	err := s.sessions.WithEvents(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get event %d: %w", id, err)
		}
		found = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns every stored event in storage order.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	var items []Event
	err := s.sessions.WithEvents(ctx, func(ctx context.Context, repo Repository) error {
		events, err := repo.List(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		items = events
		return nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Event, error) {
	var updated *Event
	err := s.sessions.WithEvents(ctx, func(ctx context.Context, repo Repository) error {
		event, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("update event %d: %w", id, err)
		}

		event.Title = partial.Apply(event.Title, params.Title)
		event.Description = partial.Apply(event.Description, params.Description)
		event.Location = partial.Apply(event.Location, params.Location)
		event.MaxParticipants = partial.Apply(event.MaxParticipants, params.MaxParticipants)

		saved, err := repo.Save(ctx, *event)
		if err != nil {
			return fmt.Errorf("update event %d: %w", id, err)
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("event_id", updated.ID).Msg("event updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.sessions.WithEvents(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return fmt.Errorf("delete event %d: %w", id, err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete event %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("event_id", id).Msg("event deleted")
	return nil
}
