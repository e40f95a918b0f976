// Package session persists browser sessions in SQLite. Cookie tokens are
// stored only as SHA-256 hashes and the API bearer token is sealed.
package session

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/adapters/storage"
	domain "github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// timeLayout is fixed-width so stored times compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// TokenGenerator returns a new opaque cookie token.
type TokenGenerator func() (string, error)

// SQLiteStore implements the session store using SQLite.
type SQLiteStore struct {
	db       storage.SQLDB
	sealer   *Sealer
	newToken TokenGenerator
	now      func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db has the session schema (storage.InitDB)
func NewSQLiteStore(db storage.SQLDB, sealer *Sealer, newToken TokenGenerator) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer, newToken: newToken, now: time.Now}
}

// Create persists s under a fresh token.
// PRE: s.User.ID and s.User.AuthToken are non-empty
// POST: Row inserted; the returned token is the only way to read it back
func (st *SQLiteStore) Create(ctx context.Context, s domain.Session) (string, error) {
	token, err := st.newToken()
	if err != nil {
		return "", err
	}
	if err := st.save(ctx, token, s, false); err != nil {
		return "", err
	}
	return token, nil
}

// Get retrieves a live session by token.
// PRE: token is non-empty
// POST: Returns domain.ErrNotFound for unknown, expired or unreadable rows; the latter two are deleted
func (st *SQLiteStore) Get(ctx context.Context, token string) (domain.Session, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, image, auth_token, flashes, created_at, expires_at
		 FROM session WHERE token_hash = ?`, hashToken(token))

	var (
		s         domain.Session
		sealed    []byte
		flashes   string
		createdAt string
		expiresAt sql.NullString
	)
	err := row.Scan(&s.User.ID, &s.User.Name, &s.User.Email, &s.User.Image, &sealed, &flashes, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}

	if s.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Session{}, fmt.Errorf("parse session created_at: %w", err)
	}
	if expiresAt.Valid {
		if s.ExpiresAt, err = time.Parse(timeLayout, expiresAt.String); err != nil {
			return domain.Session{}, fmt.Errorf("parse session expires_at: %w", err)
		}
	}
	if s.Expired(st.now()) {
		_ = st.Delete(ctx, token)
		return domain.Session{}, domain.ErrNotFound
	}

	authToken, err := st.sealer.Open(sealed)
	if err != nil {
		// Sealed under a previous key; the session cannot be used.
		slog.Info("session_event", "event", "unseal_failed")
		_ = st.Delete(ctx, token)
		return domain.Session{}, domain.ErrNotFound
	}
	s.User.AuthToken = string(authToken)

	if err := json.Unmarshal([]byte(flashes), &s.Flashes); err != nil {
		return domain.Session{}, fmt.Errorf("decode session flashes: %w", err)
	}
	return s, nil
}

// Update replaces the stored session for token.
// PRE: token exists in the store
// POST: Row replaced, or domain.ErrNotFound
func (st *SQLiteStore) Update(ctx context.Context, token string, s domain.Session) error {
	return st.save(ctx, token, s, true)
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: No row remains for token
func (st *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := st.db.ExecContext(ctx, `DELETE FROM session WHERE token_hash = ?`, hashToken(token))
	return err
}

// DeleteExpired removes every session expired at now and returns how many went.
func (st *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := st.db.ExecContext(ctx,
		`DELETE FROM session WHERE expires_at IS NOT NULL AND expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (st *SQLiteStore) save(ctx context.Context, token string, s domain.Session, update bool) error {
	sealed, err := st.sealer.Seal([]byte(s.User.AuthToken))
	if err != nil {
		return err
	}
	flashes := s.Flashes
	if flashes == nil {
		flashes = []domain.Flash{}
	}
	flashJSON, err := json.Marshal(flashes)
	if err != nil {
		return fmt.Errorf("encode session flashes: %w", err)
	}
	var expires any
	if !s.ExpiresAt.IsZero() {
		expires = formatTime(s.ExpiresAt)
	}

	if !update {
		_, err = st.db.ExecContext(ctx,
			`INSERT INTO session (token_hash, user_id, name, email, image, auth_token, flashes, created_at, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			hashToken(token), s.User.ID, s.User.Name, s.User.Email, s.User.Image,
			sealed, string(flashJSON), formatTime(s.CreatedAt), expires)
		return err
	}

	res, err := st.db.ExecContext(ctx,
		`UPDATE session SET user_id = ?, name = ?, email = ?, image = ?, auth_token = ?,
		   flashes = ?, created_at = ?, expires_at = ?
		 WHERE token_hash = ?`,
		s.User.ID, s.User.Name, s.User.Email, s.User.Image, sealed,
		string(flashJSON), formatTime(s.CreatedAt), expires, hashToken(token))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
