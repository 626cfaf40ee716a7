// Package account provides PostgreSQL-backed storage for user credentials.
// Usernames are unique case-insensitively; passwords are stored as salted
// PBKDF2 hashes, never in the clear.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when a username is already taken (compared
// case-insensitively).
var ErrDuplicate = errors.New("account: username already exists")

// ErrInvalidCredentials is returned when a login attempt fails, without
// distinguishing unknown users from wrong passwords.
var ErrInvalidCredentials = errors.New("account: invalid credentials")

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// Store manages user accounts in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates an account store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create registers a new account. The password is hashed before insertion.
// Returns ErrDuplicate if the username (case-insensitive) is taken.
func (s *Store) Create(ctx context.Context, username, password string) error {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO accounts (username, password_hash)
		VALUES ($1, $2)`

	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("account: insert: %w", err)
	}
	return nil
}

// Verify checks a username/password pair and returns the account's canonical
// username (in its registered casing) on success, or ErrInvalidCredentials.
func (s *Store) Verify(ctx context.Context, username, password string) (string, error) {
	const query = `
		SELECT username, password_hash
		FROM accounts
		WHERE lower(username) = lower($1)`

	var canonical, passwordHash string
	err := s.db.QueryRowContext(ctx, query, username).Scan(&canonical, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("account: lookup: %w", err)
	}

	if !VerifyPassword(password, passwordHash) {
		return "", ErrInvalidCredentials
	}
	return canonical, nil
}
