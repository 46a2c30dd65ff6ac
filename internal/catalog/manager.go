package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/state"
)

// recentRowSize bounds the Recently Added row.
const recentRowSize = 10

// Manager provides catalog and user-collection operations over the
// shared state container.
type Manager struct {
	state *state.Container
}

// NewManager constructs a catalog manager over the shared state container.
func NewManager(st *state.Container) *Manager {
	if st == nil {
		panic("catalog: state container must not be nil")
	}
	return &Manager{state: st}
}

// AddMovie prepends the movie to the catalog. Most-recent-first ordering
// is an observable contract: the Recently Added row relies on it.
func (m *Manager) AddMovie(ctx context.Context, movie models.Movie) error {
	err := m.state.MutateMovies(ctx, func(movies []models.Movie) []models.Movie {
		return append([]models.Movie{movie}, movies...)
	})
	if err != nil {
		return fmt.Errorf("add movie: %w", err)
	}
	return nil
}

// AddUser appends the user to the collection.
func (m *Manager) AddUser(ctx context.Context, user models.User) error {
	err := m.state.MutateUsers(ctx, func(users []models.User) []models.User {
		return append(users, user)
	})
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// ToggleDownload flips a user's download-permission flag.
func (m *Manager) ToggleDownload(ctx context.Context, userID string) error {
	err := m.state.MutateUsers(ctx, func(users []models.User) []models.User {
		for i := range users {
			if users[i].ID == userID {
				users[i].CanDownload = !users[i].CanDownload
			}
		}
		return users
	})
	if err != nil {
		return fmt.Errorf("toggle download access: %w", err)
	}
	return nil
}

// Movies returns the catalog in display order.
func (m *Manager) Movies() []models.Movie {
	return m.state.Movies()
}

// Users returns the user collection.
func (m *Manager) Users() []models.User {
	return m.state.Users()
}

// FilterUsers returns the users whose name contains the query,
// case-insensitively. An empty query matches everyone.
func FilterUsers(users []models.User, query string) []models.User {
	query = strings.ToLower(query)
	var out []models.User
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), query) {
			out = append(out, u)
		}
	}
	return out
}

// FilterMovies returns the movies whose title contains the query,
// case-insensitively.
func FilterMovies(movies []models.Movie, query string) []models.Movie {
	query = strings.ToLower(query)
	var out []models.Movie
	for _, mv := range movies {
		if strings.Contains(strings.ToLower(mv.Title), query) {
			out = append(out, mv)
		}
	}
	return out
}

// Row is one horizontally scrolled strip of the browse screen.
type Row struct {
	Title  string
	Movies []models.Movie
}

// GroupByGenre derives the distinct genres in first-seen order and, for
// each, the subsequence of movies sharing it, preserving catalog order.
func GroupByGenre(movies []models.Movie) []Row {
	var order []string
	byGenre := make(map[string][]models.Movie)
	for _, mv := range movies {
		if _, seen := byGenre[mv.Genre]; !seen {
			order = append(order, mv.Genre)
		}
		byGenre[mv.Genre] = append(byGenre[mv.Genre], mv)
	}

	rows := make([]Row, 0, len(order))
	for _, genre := range order {
		rows = append(rows, Row{Title: genre, Movies: byGenre[genre]})
	}
	return rows
}

// Rows assembles the full browse layout: Recently Added, one row per
// genre, then the whole catalog.
func Rows(movies []models.Movie) []Row {
	if len(movies) == 0 {
		return nil
	}

	recent := movies
	if len(recent) > recentRowSize {
		recent = recent[:recentRowSize]
	}

	rows := []Row{{Title: "Recently Added", Movies: recent}}
	for _, row := range GroupByGenre(movies) {
		row.Title = row.Title + " Hits"
		rows = append(rows, row)
	}
	return append(rows, Row{Title: "All Movies", Movies: movies})
}
