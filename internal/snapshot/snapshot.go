package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cinemax/cinemax/internal/logging"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/state"
)

// ErrMalformedPayload indicates the pasted data does not parse or lacks
// the users/movies fields.
var ErrMalformedPayload = errors.New("malformed sync payload")

// Snapshot is the portable copy of state carried between devices. It
// holds every user (credentials included, to keep logins working on the
// other device) and only the movies whose assets are not device-local:
// local blobs do not survive the copy-paste channel.
type Snapshot struct {
	Users  []models.User  `json:"users"`
	Movies []models.Movie `json:"movies"`
}

// Syncer exports and imports snapshots over the shared state container.
type Syncer struct {
	state *state.Container
}

// NewSyncer constructs a syncer over the shared state container.
func NewSyncer(st *state.Container) *Syncer {
	if st == nil {
		panic("snapshot: state container must not be nil")
	}
	return &Syncer{state: st}
}

// Export serializes the syncable subset of state.
func (s *Syncer) Export(ctx context.Context) (string, error) {
	snap := Snapshot{Users: s.state.Users()}
	if snap.Users == nil {
		snap.Users = []models.User{}
	}
	for _, mv := range s.state.Movies() {
		if mv.IsLocal() {
			continue
		}
		snap.Movies = append(snap.Movies, mv)
	}
	if snap.Movies == nil {
		snap.Movies = []models.Movie{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data), nil
}

// Import replaces both collections with the snapshot's contents. This
// is a deliberate whole-state, last-writer-wins overwrite, not a merge.
// A malformed payload leaves existing state untouched.
func (s *Syncer) Import(ctx context.Context, payload string) error {
	ctx, span := logging.StartSpan(ctx, "import")

	var snap struct {
		Users  []models.User  `json:"users"`
		Movies []models.Movie `json:"movies"`
	}
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		span.End(ErrMalformedPayload)
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if snap.Users == nil || snap.Movies == nil {
		span.End(ErrMalformedPayload)
		return fmt.Errorf("%w: users and movies fields are required", ErrMalformedPayload)
	}

	if err := s.state.Replace(ctx, snap.Users, snap.Movies); err != nil {
		span.End(err)
		return fmt.Errorf("apply snapshot: %w", err)
	}

	span.End(nil)
	return nil
}
