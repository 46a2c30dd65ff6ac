package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cinemax/cinemax/internal/logging"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/store"
)

// Container holds the working copies of the user collection, the movie
// catalog and the active session. All mutation funnels through a single
// mutex, and every mutation is written through to the record store
// before it returns, so the store never lags the in-memory state.
type Container struct {
	records store.RecordStore

	mu     sync.Mutex
	users  []models.User
	movies []models.Movie
	auth   models.AuthState

	now func() time.Time
}

// NewContainer constructs an empty container backed by the record store.
// Call Load before use.
func NewContainer(records store.RecordStore) *Container {
	return &Container{
		records: records,
		now:     time.Now,
	}
}

// Load rehydrates users, movies and the session from the record store.
// A device without a users record (or with one that no longer parses)
// starts from the default administrator; a missing movies record is
// seeded with the stock catalog. A user collection without an ADMIN
// gets the default administrator appended before first use.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := logging.FromContext(ctx)

	users, found := c.loadUsers(ctx)
	if !found {
		logger.Info("no stored users, starting from default admin")
	}
	if !hasAdmin(users) {
		users = append(users, models.DefaultAdmin(c.now()))
	}
	c.users = users
	if err := c.persistUsers(ctx); err != nil {
		return err
	}

	movies, found := c.loadMovies(ctx)
	if !found {
		logger.Info("no stored movies, seeding stock catalog")
	}
	c.movies = movies
	if err := c.persistMovies(ctx); err != nil {
		return err
	}

	c.auth = c.loadAuth(ctx)
	return c.persistAuth(ctx)
}

func (c *Container) loadUsers(ctx context.Context) ([]models.User, bool) {
	raw, ok, err := c.records.Get(ctx, store.RecordUsers)
	if err != nil || !ok {
		return nil, false
	}
	var users []models.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		logging.FromContext(ctx).Warn("stored users record unreadable, discarding", "error", err)
		return nil, false
	}
	return users, true
}

func (c *Container) loadMovies(ctx context.Context) ([]models.Movie, bool) {
	raw, ok, err := c.records.Get(ctx, store.RecordMovies)
	if err != nil || !ok {
		return models.SeedMovies(), false
	}
	var movies []models.Movie
	if err := json.Unmarshal([]byte(raw), &movies); err != nil {
		logging.FromContext(ctx).Warn("stored movies record unreadable, discarding", "error", err)
		return models.SeedMovies(), false
	}
	return movies, true
}

func (c *Container) loadAuth(ctx context.Context) models.AuthState {
	raw, ok, err := c.records.Get(ctx, store.RecordAuth)
	if err != nil || !ok {
		return models.AuthState{}
	}
	var auth models.AuthState
	if err := json.Unmarshal([]byte(raw), &auth); err != nil {
		return models.AuthState{}
	}
	return auth
}

// Users returns a copy of the user collection.
func (c *Container) Users() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.User(nil), c.users...)
}

// Movies returns a copy of the movie catalog in display order.
func (c *Container) Movies() []models.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Movie(nil), c.movies...)
}

// Auth returns the active session.
func (c *Container) Auth() models.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// MutateUsers applies fn to the user collection and persists the result.
// When persistence fails the in-memory collection is rolled back, so a
// failed mutation leaves no trace.
func (c *Container) MutateUsers(ctx context.Context, fn func([]models.User) []models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.users
	c.users = fn(append([]models.User(nil), c.users...))
	if err := c.persistUsers(ctx); err != nil {
		c.users = prev
		return err
	}
	return nil
}

// MutateMovies applies fn to the catalog and persists the result, with
// the same rollback guarantee as MutateUsers.
func (c *Container) MutateMovies(ctx context.Context, fn func([]models.Movie) []models.Movie) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.movies
	c.movies = fn(append([]models.Movie(nil), c.movies...))
	if err := c.persistMovies(ctx); err != nil {
		c.movies = prev
		return err
	}
	return nil
}

// SetAuth replaces the active session and persists it.
func (c *Container) SetAuth(ctx context.Context, auth models.AuthState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.auth
	c.auth = auth
	if err := c.persistAuth(ctx); err != nil {
		c.auth = prev
		return err
	}
	return nil
}

// Replace swaps in whole new user and movie collections in one step.
// Used by the snapshot importer; either both collections land or
// neither does.
func (c *Container) Replace(ctx context.Context, users []models.User, movies []models.Movie) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevUsers, prevMovies := c.users, c.movies
	c.users = append([]models.User(nil), users...)
	c.movies = append([]models.Movie(nil), movies...)

	if err := c.persistUsers(ctx); err != nil {
		c.users, c.movies = prevUsers, prevMovies
		return err
	}
	if err := c.persistMovies(ctx); err != nil {
		c.users, c.movies = prevUsers, prevMovies
		if restoreErr := c.persistUsers(ctx); restoreErr != nil {
			return fmt.Errorf("persist movies: %w (restore users: %v)", err, restoreErr)
		}
		return err
	}
	return nil
}

// Reset clears every record and blob and empties the working copies.
// The next Load starts from the first-run defaults.
func (c *Container) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.records.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	c.users = nil
	c.movies = nil
	c.auth = models.AuthState{}
	return nil
}

func (c *Container) persistUsers(ctx context.Context) error {
	data, err := json.Marshal(c.users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := c.records.Set(ctx, store.RecordUsers, string(data)); err != nil {
		return fmt.Errorf("persist users: %w", err)
	}
	return nil
}

func (c *Container) persistMovies(ctx context.Context) error {
	data, err := json.Marshal(c.movies)
	if err != nil {
		return fmt.Errorf("encode movies: %w", err)
	}
	if err := c.records.Set(ctx, store.RecordMovies, string(data)); err != nil {
		return fmt.Errorf("persist movies: %w", err)
	}
	return nil
}

func (c *Container) persistAuth(ctx context.Context) error {
	data, err := json.Marshal(c.auth)
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	if err := c.records.Set(ctx, store.RecordAuth, string(data)); err != nil {
		return fmt.Errorf("persist auth state: %w", err)
	}
	return nil
}

func hasAdmin(users []models.User) bool {
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}
