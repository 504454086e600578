package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/mattn/go-sqlite3"
)

var _ accounts.Repository = (*AccountRepository)(nil)

type AccountRepository struct {
	conn *sql.Conn
}

func (r *AccountRepository) Create(ctx context.Context, params accounts.CreateParams) (_ *accounts.Account, err error) {
	start := time.Now()
	defer func() { observe("create_account", start, err) }()

	var a accounts.Account
	err = r.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?)
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
	err = r.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password FROM users WHERE id = ?`, id,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password)
	if errors.Is(err, sql.ErrNoRows) {
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
	err = r.conn.QueryRowContext(ctx,
		`UPDATE users SET username = ?, email = ?, password = ?
		 WHERE id = ?
		 RETURNING id, username, email, password`,
		account.Username, account.Email, account.Password, account.ID,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Password)
	if errors.Is(err, sql.ErrNoRows) {
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

	result, err := r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

// translateAccountError turns unique constraint failures into
// *accounts.DuplicateError. SQLite reports them as
// "UNIQUE constraint failed: users.<column>".
func translateAccountError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		field := ""
		msg := sqliteErr.Error()
		if i := strings.LastIndex(msg, "users."); i >= 0 {
			field = strings.TrimSpace(msg[i+len("users."):])
		}
		return &accounts.DuplicateError{Field: field, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
