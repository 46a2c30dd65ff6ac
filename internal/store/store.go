package store

import (
	"context"
	"errors"
	"io"
)

// Record keys for the three logical state snapshots. The values mirror
// the keys the original device storage used so exported data stays
// recognizable across installs.
const (
	RecordUsers  = "cinemax_users"
	RecordMovies = "cinemax_movies"
	RecordAuth   = "cinemax_auth"
)

var (
	// ErrBlobNotFound indicates no blob exists under the requested id.
	ErrBlobNotFound = errors.New("blob not found")
)

// RecordStore persists the serialized user/movie/auth snapshots. Every
// in-memory mutation is written through before the next action can
// observe it, so implementations must make Set durable on return.
type RecordStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value, replacing any previous one.
	Set(ctx context.Context, key, value string) error
	// Reset removes every record and blob, returning the store to its
	// first-run state.
	Reset(ctx context.Context) error
}

// BlobStore persists uploaded video assets too large for the record
// area, keyed by movie identifier.
type BlobStore interface {
	// Put stores the reader's content under id, replacing any previous
	// blob, and reports the number of bytes written.
	Put(ctx context.Context, id string, r io.Reader) (int64, error)
	// Open returns a reader over the blob and its size. The caller must
	// close the reader. Returns ErrBlobNotFound when absent.
	Open(ctx context.Context, id string) (io.ReadCloser, int64, error)
	// Delete removes the blob if present. Deleting a missing blob is
	// not an error.
	Delete(ctx context.Context, id string) error
}

// Store combines the record and blob areas of one persistence backend.
type Store interface {
	RecordStore
	BlobStore
}
