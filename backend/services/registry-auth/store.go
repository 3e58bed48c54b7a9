package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/regnet/property-registration/backend/services/registry-auth/models"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// AccountStore persists gateway accounts.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	Find(ctx context.Context, username string) (*models.Account, error)
	TouchLogin(ctx context.Context, username string, at time.Time) error
}

type PostgresAccounts struct {
	db *sql.DB
}

func NewPostgresAccounts(db *sql.DB) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

func (s *PostgresAccounts) Create(ctx context.Context, a *models.Account) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (username, password_hash, role, status) VALUES ($1, $2, $3, $4)",
		a.Username, a.PasswordHash, a.Role, a.Status)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAccountExists
	}
	return err
}

func (s *PostgresAccounts) Find(ctx context.Context, username string) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx,
		"SELECT username, password_hash, role, status, created_at, last_login_at FROM accounts WHERE username = $1", username).
		Scan(&a.Username, &a.PasswordHash, &a.Role, &a.Status, &a.CreatedAt, &a.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresAccounts) TouchLogin(ctx context.Context, username string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE accounts SET last_login_at = $1 WHERE username = $2", at, username)
	return err
}
