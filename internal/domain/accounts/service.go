package accounts

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
		logger:   logger.With().Str("component", "accounts").Logger(),
	}
}

// Create inserts a new account. Uniqueness of username and email is left
// to the storage constraints, which surface as *DuplicateError.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	var created *Account
	err := s.sessions.WithAccounts(ctx, func(ctx context.Context, repo Repository) error {
		account, err := repo.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("account_id", created.ID).Str("username", created.Username).Msg("account created")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	var found *Account
	err := s.sessions.WithAccounts(ctx, func(ctx context.Context, repo Repository) error {
		account, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get account %d: %w", id, err)
		}
		found = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update applies every supplied non-empty field and persists the result.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Account, error) {
	var updated *Account
	err := s.sessions.WithAccounts(ctx, func(ctx context.Context, repo Repository) error {
		account, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("update account %d: %w", id, err)
		}

		account.Username = partial.Apply(account.Username, params.Username)
		account.Email = partial.Apply(account.Email, params.Email)
		account.Password = partial.Apply(account.Password, params.Password)

		saved, err := repo.Save(ctx, *account)
		if err != nil {
			return fmt.Errorf("update account %d: %w", id, err)
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("account_id", updated.ID).Msg("account updated")
	return updated, nil
}

// Delete removes the account only. Events it organizes keep their
// organizer id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.sessions.WithAccounts(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("account_id", id).Msg("account deleted")
	return nil
}
