package metadata

import (
	"context"
	"errors"
)

// Metadata is the generated flavor text attached to a new catalog entry.
type Metadata struct {
	Description string `json:"description"`
	Rating      string `json:"rating"`
}

// Provider generates a description and rating for a movie title/genre
// pair. Failures are never fatal to callers: the upload pipeline
// substitutes Fallback() and proceeds.
type Provider interface {
	Generate(ctx context.Context, title, genre string) (Metadata, error)
}

var (
	// ErrProviderUnavailable indicates no metadata provider is configured.
	ErrProviderUnavailable = errors.New("metadata provider unavailable")
)

// Fallback returns the fixed content used when the collaborator fails
// or is not configured.
func Fallback() Metadata {
	return Metadata{
		Description: "Cinemax Original. Experience the thrill in 4K.",
		Rating:      "8.9/10",
	}
}
