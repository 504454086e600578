package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ accounts.Repository = (*AccountRepository)(nil)

const uniqueViolation = "23505"

// Constraint names from the users table migration.
var accountConstraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

type AccountRepository struct {
	db queryer
}

func (r *AccountRepository) Create(ctx context.Context, params accounts.CreateParams) (_ *accounts.Account, err error) {
	start := time.Now()
	defer func() { observe("create_account", start, err) }()

	var a accounts.Account
	err = r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3)
		 RETURNING id, username, email, password`,
		params.Username, params.Email, params.Password,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password)
	if err != nil {
		return nil, translateAccountError("insert account", err)
	}
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (_ *accounts.Account, err error) {
	start := time.Now()
	defer func() { observe("find_account", start, err) }()

	var a accounts.Account
	err = r.db.QueryRow(ctx,
		`SELECT id, username, email, password FROM users WHERE id = $1`, id,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accounts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepository) Save(ctx context.Context, account accounts.Account) (_ *accounts.Account, err error) {
	start := time.Now()
	defer func() { observe("save_account", start, err) }()

	var a accounts.Account
	err = r.db.QueryRow(ctx,
		`UPDATE users SET username = $2, email = $3, password = $4
		 WHERE id = $1
		 RETURNING id, username, email, password`,
		account.ID, account.Username, account.Email, account.Password,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accounts.ErrNotFound
	}
	if err != nil {
		return nil, translateAccountError("update account", err)
	}
	return &a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete_account", start, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func translateAccountError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &accounts.DuplicateError{Field: accountConstraintFields[pgErr.ConstraintName], Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
