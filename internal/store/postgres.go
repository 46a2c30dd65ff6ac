package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Connect initialises a PostgreSQL connection pool using the provided
// database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// PostgresStore persists records and blobs in two PostgreSQL tables.
// It serves deployments where catalog state should outlive any single
// device, behind the same contract as the on-device backend.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore constructs a store backed by PostgreSQL.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS records (
                key TEXT PRIMARY KEY,
                value TEXT NOT NULL
        )`); err != nil {
		return fmt.Errorf("ensure records table: %w", err)
	}

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS blobs (
                id TEXT PRIMARY KEY,
                data BYTEA NOT NULL
        )`); err != nil {
		return fmt.Errorf("ensure blobs table: %w", err)
	}

	return nil
}

// Get returns the record stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var value string
	row := conn.QueryRow(ctx, `SELECT value FROM records WHERE key = $1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select record %s: %w", key, err)
	}

	return value, true, nil
}

// Set stores the record under key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO records (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
    `, key, value)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", key, err)
	}

	return nil
}

// Reset drops every record and blob.
func (s *PostgresStore) Reset(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := conn.Exec(ctx, `DELETE FROM blobs`); err != nil {
		return fmt.Errorf("clear blobs: %w", err)
	}

	return nil
}

// Put stores a video blob under the movie id.
func (s *PostgresStore) Put(ctx context.Context, id string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read blob %s: %w", id, err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO blobs (id, data) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
    `, id, data)
	if err != nil {
		return 0, fmt.Errorf("upsert blob %s: %w", id, err)
	}

	return int64(len(data)), nil
}

// Open returns a reader over the blob stored under the movie id.
func (s *PostgresStore) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var data []byte
	row := conn.QueryRow(ctx, `SELECT data FROM blobs WHERE id = $1`, id)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrBlobNotFound
		}
		return nil, 0, fmt.Errorf("select blob %s: %w", id, err)
	}

	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Delete removes the blob stored under the movie id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM blobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}

	return nil
}
