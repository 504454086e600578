package accounts

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("account already exists")
)

type Account struct {
	ID       int64
	Username string
	Email    string
	Password string
}

type CreateParams struct {
	Username string
	Email    string
	Password string
}

// UpdateParams carries the fields supplied by the caller. Nil and empty
// values leave the stored field unchanged.
type UpdateParams struct {
	Username *string
	Email    *string
	Password *string
}

// DuplicateError reports a unique constraint violation on an account field.
// It matches both ErrDuplicate and the underlying driver error.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateError) Unwrap() []error {
	return []error{ErrDuplicate, e.Err}
}

// Repository is bound to a single storage session. FindByID and Delete
// return ErrNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	Save(ctx context.Context, account Account) (*Account, error)
	Delete(ctx context.Context, id int64) error
}

// SessionProvider opens one storage session per call and releases it when
// fn returns, whatever the outcome.
type SessionProvider interface {
	WithAccounts(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
