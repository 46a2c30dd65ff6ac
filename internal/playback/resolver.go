package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/store"
)

var (
	// ErrAssetMissing indicates a local movie whose blob is not on this
	// device, e.g. a catalog entry imported from elsewhere.
	ErrAssetMissing = errors.New("video asset missing from device storage")
	// ErrPermissionDenied indicates the requesting user lacks download
	// access.
	ErrPermissionDenied = errors.New("download permission denied")
)

var whitespace = regexp.MustCompile(`\s+`)

// Source is a scoped, revocable handle on a movie's bytes. Exactly one
// of URL or Reader is set: external assets resolve to their URL, local
// assets to a reader over the stored blob. Close must be called on
// every exit path; for URL sources it is a no-op.
type Source struct {
	URL    string
	Reader io.ReadCloser
	Size   int64

	// Filename is the suggested name for a saved copy.
	Filename string
}

// Close releases the underlying blob reader, if any. Safe to call more
// than once.
func (s *Source) Close() error {
	if s == nil || s.Reader == nil {
		return nil
	}
	rc := s.Reader
	s.Reader = nil
	return rc.Close()
}

// Resolver turns catalog entries into playable or downloadable byte
// sources.
type Resolver struct {
	blobs store.BlobStore
}

// NewResolver constructs a resolver over the blob store.
func NewResolver(blobs store.BlobStore) *Resolver {
	return &Resolver{blobs: blobs}
}

// ResolvePlayable resolves the movie to a byte source. External movies
// resolve to their stored URL; local movies are looked up in the blob
// store by movie id.
func (r *Resolver) ResolvePlayable(ctx context.Context, movie models.Movie) (*Source, error) {
	src := &Source{Filename: downloadFilename(movie)}

	if !movie.IsLocal() {
		src.URL = movie.VideoURL
		return src, nil
	}

	rc, size, err := r.blobs.Open(ctx, movie.ID)
	if err != nil {
		if errors.Is(err, store.ErrBlobNotFound) {
			return nil, ErrAssetMissing
		}
		return nil, fmt.Errorf("open video blob %s: %w", movie.ID, err)
	}

	src.Reader = rc
	src.Size = size
	return src, nil
}

// ResolveDownloadable resolves the movie for saving to disk, gated by
// the requester's download permission. The permission check happens
// before any storage access.
func (r *Resolver) ResolveDownloadable(ctx context.Context, movie models.Movie, requester models.User) (*Source, error) {
	if !requester.CanDownload {
		return nil, ErrPermissionDenied
	}
	return r.ResolvePlayable(ctx, movie)
}

// downloadFilename derives the saved-copy name: title with whitespace
// collapsed to underscores plus the original extension.
func downloadFilename(movie models.Movie) string {
	ext := movie.OriginalExtension
	if ext == "" {
		ext = "mp4"
	}
	return whitespace.ReplaceAllString(movie.Title, "_") + "." + ext
}
