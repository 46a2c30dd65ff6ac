package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketRecords = []byte("records")
	bucketBlobs   = []byte("blobs")
)

// BoltStore persists records and blobs in a single BoltDB file. It is
// the default on-device backend.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) the database file under dir.
func OpenBolt(dir string) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, "cinemax.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketBlobs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the record stored under key.
func (s *BoltStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketRecords).Get([]byte(key)); data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get record %s: %w", key, err)
	}
	return value, found, nil
}

// Set stores the record under key.
func (s *BoltStore) Set(ctx context.Context, key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set record %s: %w", key, err)
	}
	return nil
}

// Reset drops every record and blob.
func (s *BoltStore) Reset(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketBlobs} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return nil
}

// Put stores a video blob under the movie id.
func (s *BoltStore) Put(ctx context.Context, id string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read blob %s: %w", id, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(id), data)
	})
	if err != nil {
		return 0, fmt.Errorf("put blob %s: %w", id, err)
	}
	return int64(len(data)), nil
}

// Open returns a reader over the blob stored under the movie id.
func (s *BoltStore) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if stored := tx.Bucket(bucketBlobs).Get([]byte(id)); stored != nil {
			// Copy out: bolt memory is only valid inside the transaction.
			data = append([]byte(nil), stored...)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("open blob %s: %w", id, err)
	}
	if data == nil {
		return nil, 0, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Delete removes the blob stored under the movie id.
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}
