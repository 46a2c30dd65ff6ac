package models

import "time"

// Role classifies an account's privileges within Cinemax.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents an account within the Cinemax catalog.
//
// Passwords are stored in the clear: the snapshot format exchanged
// between devices carries them verbatim, so the stored record keeps
// parity with that format rather than hashing.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	CanDownload bool   `json:"canDownload"`
	IsBlocked   bool   `json:"isBlocked,omitempty"`
	LastLogin   string `json:"lastLogin,omitempty"`
}

// Storage kinds for a movie's video asset.
const (
	StorageLocal    = "local"
	StorageExternal = "external"
)

// LocalVideoSentinel is stored as a movie's VideoURL when the asset must
// be resolved through the blob store using the movie's ID.
const LocalVideoSentinel = "PERSISTENT_LOCAL_STORAGE"

// Movie is a single catalog entry. Records are immutable once committed;
// a local movie's blob has an independent lifetime.
type Movie struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Genre             string `json:"genre"`
	VideoURL          string `json:"videoUrl"`
	ThumbnailURL      string `json:"thumbnailUrl"`
	Description       string `json:"description"`
	Duration          string `json:"duration,omitempty"`
	Rating            string `json:"rating,omitempty"`
	Year              string `json:"year,omitempty"`
	StorageType       string `json:"storageType,omitempty"`
	OriginalExtension string `json:"originalExtension,omitempty"`
}

// IsLocal reports whether the movie's asset is blob-backed on this device.
func (m Movie) IsLocal() bool {
	return m.StorageType == StorageLocal
}

// AuthState is the single active session. Exactly one exists per process;
// it is persisted after every change and rehydrated at startup.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// LastLoginNever marks an account that has not signed in yet.
const LastLoginNever = "-"

// DefaultAdmin returns the administrator record synthesized whenever the
// loaded user collection contains no ADMIN role.
func DefaultAdmin(now time.Time) User {
	return User{
		ID:          "admin-id",
		Name:        "admin",
		Password:    "admin",
		Role:        RoleAdmin,
		CanDownload: true,
		LastLogin:   now.UTC().Format(time.RFC3339),
	}
}

// SeedMovies returns the stock catalog installed on a device that has
// never stored a movies record.
func SeedMovies() []Movie {
	return []Movie{
		{
			ID:           "1",
			Title:        "Interstellar",
			Genre:        "Sci-Fi",
			VideoURL:     "https://sample-videos.com/video321/mp4/720/big_buck_bunny_720p_1mb.mp4",
			ThumbnailURL: "https://picsum.photos/id/1/1280/720",
			Description:  "When Earth becomes uninhabitable, a team of ex-pilots and scientists travel through a wormhole in search of a new home for mankind.",
			Year:         "2014",
		},
		{
			ID:           "2",
			Title:        "The Dark Knight",
			Genre:        "Action",
			VideoURL:     "https://sample-videos.com/video321/mp4/720/big_buck_bunny_720p_1mb.mp4",
			ThumbnailURL: "https://picsum.photos/id/10/1280/720",
			Description:  "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological and physical tests of his ability to fight injustice.",
			Year:         "2008",
		},
	}
}
