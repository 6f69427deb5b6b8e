package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows is returned when a lookup matches nothing.
var ErrNoRows = pgx.ErrNoRows

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	passphrase_hash TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	model      JSONB NOT NULL,
	applied    INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (session_id, version)
);
`

// DBTX is the subset of pgx used by Store, satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists sessions and their latest model snapshot.
type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

type SessionRow struct {
	ID             string
	Name           string
	PassphraseHash string
	CreatedAt      time.Time
}

type SnapshotRow struct {
	ID        string
	SessionID string
	Version   int32
	Model     []float64
	Applied   int32
	CreatedAt time.Time
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, id, name, passphraseHash string) (SessionRow, error) {
	var row SessionRow
	err := s.db.QueryRow(ctx,
		`INSERT INTO sessions (id, name, passphrase_hash) VALUES ($1, $2, $3)
		 RETURNING id, name, passphrase_hash, created_at`,
		id, name, passphraseHash,
	).Scan(&row.ID, &row.Name, &row.PassphraseHash, &row.CreatedAt)
	if err != nil {
		return SessionRow{}, fmt.Errorf("insert session: %w", err)
	}
	return row, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (SessionRow, error) {
	var row SessionRow
	err := s.db.QueryRow(ctx,
		`SELECT id, name, passphrase_hash, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&row.ID, &row.Name, &row.PassphraseHash, &row.CreatedAt)
	if err != nil {
		return SessionRow{}, err
	}
	return row, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]SessionRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, passphrase_hash, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.ID, &row.Name, &row.PassphraseHash, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (s *Store) LatestSnapshot(ctx context.Context, sessionID string) (SnapshotRow, error) {
	var (
		row   SnapshotRow
		model []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, session_id, version, model, applied, created_at FROM snapshots
		 WHERE session_id = $1 ORDER BY version DESC LIMIT 1`, sessionID,
	).Scan(&row.ID, &row.SessionID, &row.Version, &model, &row.Applied, &row.CreatedAt)
	if err != nil {
		return SnapshotRow{}, err
	}
	if err := json.Unmarshal(model, &row.Model); err != nil {
		return SnapshotRow{}, fmt.Errorf("decode model: %w", err)
	}
	return row, nil
}

// SaveSnapshot writes row and prunes every older version of the session,
// so only the current cumulative matrix is retained.
func (s *Store) SaveSnapshot(ctx context.Context, row SnapshotRow) error {
	model, err := json.Marshal(row.Model)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, session_id, version, model, applied) VALUES ($1, $2, $3, $4, $5)`,
		row.ID, row.SessionID, row.Version, model, row.Applied,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM snapshots WHERE session_id = $1 AND version < $2`,
		row.SessionID, row.Version,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit(ctx)
}

// IsNoRows reports whether err means the lookup matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports whether err is a unique_violation.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
