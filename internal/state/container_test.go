package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/store"
)

// failingRecords wraps a store and fails writes on demand.
type failingRecords struct {
	store.RecordStore
	failSet bool
}

func (f *failingRecords) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.RecordStore.Set(ctx, key, value)
}

func TestLoadSeedsStockCatalog(t *testing.T) {
	c := NewContainer(store.NewMemoryStore())
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	movies := c.Movies()
	if len(movies) != len(models.SeedMovies()) {
		t.Fatalf("expected stock catalog, got %d movies", len(movies))
	}
}

func TestLoadFallsBackOnCorruptRecords(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	if err := mem.Set(ctx, store.RecordUsers, "{corrupt"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := mem.Set(ctx, store.RecordMovies, "{corrupt"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := NewContainer(mem)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	users := c.Users()
	if len(users) != 1 || users[0].Role != models.RoleAdmin {
		t.Fatalf("expected default admin fallback, got %+v", users)
	}
	if len(c.Movies()) != len(models.SeedMovies()) {
		t.Fatal("expected stock catalog fallback")
	}
}

func TestMutationsWriteThrough(t *testing.T) {
	mem := store.NewMemoryStore()
	c := NewContainer(mem)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := c.MutateMovies(ctx, func(movies []models.Movie) []models.Movie {
		return append([]models.Movie{{ID: "m1", Title: "New"}}, movies...)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	raw, found, err := mem.Get(ctx, store.RecordMovies)
	if err != nil || !found {
		t.Fatalf("expected persisted movies record, found=%v err=%v", found, err)
	}
	var persisted []models.Movie
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted movies: %v", err)
	}
	if persisted[0].ID != "m1" {
		t.Fatalf("store lags memory: %+v", persisted[0])
	}
}

func TestFailedMutationRollsBack(t *testing.T) {
	records := &failingRecords{RecordStore: store.NewMemoryStore()}
	c := NewContainer(records)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	before := len(c.Movies())
	records.failSet = true

	err := c.MutateMovies(ctx, func(movies []models.Movie) []models.Movie {
		return append([]models.Movie{{ID: "m1"}}, movies...)
	})
	if err == nil {
		t.Fatal("expected persistence failure")
	}

	if len(c.Movies()) != before {
		t.Fatal("in-memory state must roll back when persistence fails")
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	c := NewContainer(store.NewMemoryStore())
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	users := []models.User{{ID: "u1", Name: "only"}}
	movies := []models.Movie{{ID: "m1", Title: "only"}}
	if err := c.Replace(ctx, users, movies); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if got := c.Users(); len(got) != 1 || got[0].ID != "u1" {
		t.Fatalf("expected replaced users, got %+v", got)
	}
	if got := c.Movies(); len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("expected replaced movies, got %+v", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	mem := store.NewMemoryStore()
	c := NewContainer(mem)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if len(c.Users()) != 0 || len(c.Movies()) != 0 {
		t.Fatal("expected empty working copies after reset")
	}
	if _, found, _ := mem.Get(ctx, store.RecordUsers); found {
		t.Fatal("expected store cleared after reset")
	}
}
