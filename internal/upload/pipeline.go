package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cinemax/cinemax/internal/catalog"
	"github.com/cinemax/cinemax/internal/logging"
	"github.com/cinemax/cinemax/internal/metadata"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/store"
)

var (
	// ErrUploadInProgress indicates another upload attempt is already
	// active on this pipeline. Attempts are strictly one at a time.
	ErrUploadInProgress = errors.New("upload already in progress")

	// ErrValidation is the base class for pre-storage rejections. A
	// failed validation performs no storage write and no catalog commit.
	ErrValidation = errors.New("upload validation failed")

	errMissingTitleGenre = fmt.Errorf("%w: title and genre are required", ErrValidation)
	errMissingFile       = fmt.Errorf("%w: no video file selected", ErrValidation)
	errMissingURL        = fmt.Errorf("%w: no video url provided", ErrValidation)
)

// Method selects where the video bytes come from.
type Method string

const (
	MethodFile Method = "file"
	MethodURL  Method = "url"
)

const defaultExtension = "mp4"

// urlExtPattern matches a trailing .<ext> before a query or fragment.
var urlExtPattern = regexp.MustCompile(`(?i)\.([a-z0-9]+)(?:[?#]|$)`)

// Request describes one upload attempt.
type Request struct {
	Title string
	Genre string

	Method      Method
	FileName    string
	File        io.Reader
	ExternalURL string

	// Progress, when set, receives a monotonically increasing
	// percentage through the stages, reaching 100 on success and
	// settling back to 0 once the attempt terminates.
	Progress func(percent int)
}

// Pipeline turns an upload request into a committed catalog entry:
// validate, store the asset, fetch generated metadata, commit.
type Pipeline struct {
	blobs    store.BlobStore
	provider metadata.Provider
	catalog  *catalog.Manager

	busy    atomic.Bool
	nowFunc func() time.Time
	newID   func() string
}

// NewPipeline constructs an upload pipeline.
func NewPipeline(blobs store.BlobStore, provider metadata.Provider, cat *catalog.Manager) *Pipeline {
	return &Pipeline{
		blobs:    blobs,
		provider: provider,
		catalog:  cat,
		nowFunc:  time.Now,
		newID:    func() string { return "mov-" + uuid.NewString() },
	}
}

// Upload runs one attempt to completion. A failed attempt leaves the
// catalog untouched; a validation failure additionally writes nothing
// to the blob store.
func (p *Pipeline) Upload(ctx context.Context, req Request) (models.Movie, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return models.Movie{}, ErrUploadInProgress
	}
	defer p.busy.Store(false)

	ctx, span := logging.StartSpan(ctx, "upload")
	logger := logging.FromContext(ctx)

	report := func(pct int) {
		if req.Progress != nil {
			req.Progress(pct)
		}
	}
	report(0)
	// Terminal settle: the bar returns to 0 whether the attempt
	// succeeded or failed.
	defer report(0)

	if err := validate(req); err != nil {
		span.End(err)
		return models.Movie{}, err
	}
	report(20)

	movieID := p.newID()
	videoURL := ""
	storageType := models.StorageExternal
	extension := defaultExtension

	if req.Method == MethodFile {
		extension = fileExtension(req.FileName)
		size, err := p.blobs.Put(ctx, movieID, req.File)
		if err != nil {
			span.End(err)
			return models.Movie{}, fmt.Errorf("store video blob: %w", err)
		}
		logger.Info("video stored on device", "movieId", movieID, "bytes", size, "extension", extension)
		videoURL = models.LocalVideoSentinel
		storageType = models.StorageLocal
		report(40)
	} else {
		videoURL = req.ExternalURL
		extension = urlExtension(req.ExternalURL)
	}
	report(60)

	md, err := p.provider.Generate(ctx, req.Title, req.Genre)
	if err != nil {
		// Collaborator failure is never fatal to the upload.
		logger.Warn("metadata generation failed, using fallback", "error", err)
		md = metadata.Fallback()
	}
	report(90)

	movie := models.Movie{
		ID:                movieID,
		Title:             req.Title,
		Genre:             req.Genre,
		VideoURL:          videoURL,
		ThumbnailURL:      "https://picsum.photos/seed/" + url.PathEscape(req.Title) + "/1280/720",
		Description:       md.Description,
		Duration:          "HD",
		Rating:            md.Rating,
		Year:              strconv.Itoa(p.nowFunc().Year()),
		StorageType:       storageType,
		OriginalExtension: extension,
	}

	if err := p.catalog.AddMovie(ctx, movie); err != nil {
		if storageType == models.StorageLocal {
			if cleanupErr := p.blobs.Delete(ctx, movieID); cleanupErr != nil {
				logger.Warn("orphaned blob cleanup failed", "movieId", movieID, "error", cleanupErr)
			}
		}
		span.End(err)
		return models.Movie{}, fmt.Errorf("commit movie: %w", err)
	}
	report(100)

	span.End(nil)
	return movie, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Genre) == "" {
		return errMissingTitleGenre
	}
	switch req.Method {
	case MethodFile:
		if req.File == nil {
			return errMissingFile
		}
	case MethodURL:
		if strings.TrimSpace(req.ExternalURL) == "" {
			return errMissingURL
		}
	default:
		return fmt.Errorf("%w: unknown upload method %q", ErrValidation, req.Method)
	}
	return nil
}

// fileExtension takes the text after the final '.' of the filename.
func fileExtension(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return defaultExtension
	}
	ext := parts[len(parts)-1]
	if ext == "" {
		return defaultExtension
	}
	return ext
}

// urlExtension guesses the extension from a trailing .<ext> before any
// query or fragment delimiter.
func urlExtension(raw string) string {
	if m := urlExtPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return defaultExtension
}
