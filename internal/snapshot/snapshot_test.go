package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/state"
	"github.com/cinemax/cinemax/internal/store"
)

func newTestSyncer(t *testing.T) (*Syncer, *state.Container) {
	t.Helper()

	st := state.NewContainer(store.NewMemoryStore())
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load state: %v", err)
	}
	return NewSyncer(st), st
}

func TestExportExcludesLocalMovies(t *testing.T) {
	syncer, st := newTestSyncer(t)
	ctx := context.Background()

	err := st.MutateMovies(ctx, func(movies []models.Movie) []models.Movie {
		return []models.Movie{
			{ID: "m1", Title: "Cloud", StorageType: models.StorageExternal, VideoURL: "https://cdn.example.com/v.mp4"},
			{ID: "m2", Title: "Laptop", StorageType: models.StorageLocal, VideoURL: models.LocalVideoSentinel},
		}
	})
	if err != nil {
		t.Fatalf("seed movies: %v", err)
	}

	payload, err := syncer.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}

	if len(snap.Movies) != 1 || snap.Movies[0].ID != "m1" {
		t.Fatalf("expected only the external movie, got %+v", snap.Movies)
	}
	if len(snap.Users) == 0 {
		t.Fatal("expected users in snapshot")
	}
	// Credentials travel with the snapshot so logins work on the
	// destination device.
	if snap.Users[0].Password == "" {
		t.Fatalf("expected credentials in snapshot, got %+v", snap.Users[0])
	}
}

func TestImportReplacesBothCollections(t *testing.T) {
	syncer, st := newTestSyncer(t)
	ctx := context.Background()

	payload, err := json.Marshal(Snapshot{
		Users:  []models.User{{ID: "u9", Name: "imported", Password: "pw", Role: models.RoleUser}},
		Movies: []models.Movie{{ID: "m9", Title: "Imported", StorageType: models.StorageExternal}},
	})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	if err := syncer.Import(ctx, string(payload)); err != nil {
		t.Fatalf("import: %v", err)
	}

	users := st.Users()
	if len(users) != 1 || users[0].ID != "u9" {
		t.Fatalf("expected wholesale user replacement, got %+v", users)
	}
	movies := st.Movies()
	if len(movies) != 1 || movies[0].ID != "m9" {
		t.Fatalf("expected wholesale movie replacement, got %+v", movies)
	}
}

func TestImportRejectsUnparseablePayload(t *testing.T) {
	syncer, st := newTestSyncer(t)
	before := st.Movies()

	err := syncer.Import(context.Background(), "{not json")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}

	if len(st.Movies()) != len(before) {
		t.Fatal("failed import must leave the catalog untouched")
	}
}

func TestImportRejectsMissingMoviesField(t *testing.T) {
	syncer, st := newTestSyncer(t)
	before := st.Movies()

	err := syncer.Import(context.Background(), `{"users": []}`)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
	if len(st.Movies()) != len(before) {
		t.Fatal("failed import must leave the catalog untouched")
	}
}

func TestImportRejectsMissingUsersField(t *testing.T) {
	syncer, _ := newTestSyncer(t)

	err := syncer.Import(context.Background(), `{"movies": []}`)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	ctx := context.Background()

	payload, err := syncer.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := syncer.Import(ctx, payload); err != nil {
		t.Fatalf("import of own export: %v", err)
	}
}
