package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"dailybingo/internal/bingo"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS bingo_sessions (
	session_id TEXT PRIMARY KEY,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectSnapshotSQL = `SELECT snapshot FROM bingo_sessions WHERE session_id = $1`
	upsertSnapshotSQL = `INSERT INTO bingo_sessions (session_id, snapshot, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (session_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`
	deleteSnapshotSQL = `DELETE FROM bingo_sessions WHERE session_id = $1`
	deleteExpiredSQL  = `DELETE FROM bingo_sessions WHERE updated_at < $1`
)

// DB is the part of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps snapshots in the bingo_sessions table.
type PostgresStore struct {
	db  DB
	log *zap.SugaredLogger
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db DB, log *zap.SugaredLogger) *PostgresStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PostgresStore{db: db, log: log}
}

// OpenPostgres connects to dsn, checks the connection and creates the table.
func OpenPostgres(ctx context.Context, dsn string, log *zap.SugaredLogger) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	s := NewPostgresStore(pool, log)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create bingo_sessions: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. Rows that fail validation are deleted.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*bingo.State, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.db.QueryRow(ctx, selectSnapshotSQL, sessionID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session %s: %w", sessionID, err)
	}
	state, err := decode(raw)
	if err != nil {
		s.log.Warnf("Stored snapshot for session %s is unusable, removing: %v", sessionID, err)
		if _, derr := s.db.Exec(ctx, deleteSnapshotSQL, sessionID); derr != nil {
			s.log.Warnf("Failed to delete snapshot for session %s: %v", sessionID, derr)
		}
		return nil, ErrNotFound
	}
	return state, nil
}

// Save upserts the snapshot for sessionID.
func (s *PostgresStore) Save(ctx context.Context, sessionID string, state bingo.State) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	if _, err := s.db.Exec(ctx, upsertSnapshotSQL, sessionID, data); err != nil {
		return fmt.Errorf("upsert session %s: %w", sessionID, err)
	}
	return nil
}

// Cleanup deletes rows not updated within maxAge.
func (s *PostgresStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	tag, err := s.db.Exec(ctx, deleteExpiredSQL, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	removed := int(tag.RowsAffected())
	s.log.Infof("Session cleanup completed: removed %d rows", removed)
	return removed, nil
}
