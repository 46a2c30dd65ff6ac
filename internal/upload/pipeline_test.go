package upload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cinemax/cinemax/internal/catalog"
	"github.com/cinemax/cinemax/internal/metadata"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/state"
	"github.com/cinemax/cinemax/internal/store"
)

type fakeProvider struct {
	metadata metadata.Metadata
	err      error
	entered  chan struct{}
	release  chan struct{}
	calls    int
}

func (f *fakeProvider) Generate(ctx context.Context, title, genre string) (metadata.Metadata, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	return f.metadata, f.err
}

func newTestPipeline(t *testing.T, provider metadata.Provider) (*Pipeline, *catalog.Manager, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	st := state.NewContainer(mem)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load state: %v", err)
	}
	cat := catalog.NewManager(st)
	return NewPipeline(mem, provider, cat), cat, mem
}

func TestUploadEmptyTitleFailsValidation(t *testing.T) {
	provider := &fakeProvider{}
	pipeline, cat, mem := newTestPipeline(t, provider)
	before := len(cat.Movies())

	_, err := pipeline.Upload(context.Background(), Request{
		Genre:  "Action",
		Method: MethodFile,
		File:   strings.NewReader("bytes"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if len(cat.Movies()) != before {
		t.Fatal("failed validation must not mutate the catalog")
	}
	if provider.calls != 0 {
		t.Fatal("failed validation must not invoke the metadata collaborator")
	}
	// No blob may have been written either.
	for _, mv := range cat.Movies() {
		if _, _, err := mem.Open(context.Background(), mv.ID); err == nil {
			t.Fatalf("unexpected blob for %s", mv.ID)
		}
	}
}

func TestUploadFileMethodWithoutFileFails(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, &fakeProvider{})

	_, err := pipeline.Upload(context.Background(), Request{Title: "Clip", Genre: "Action", Method: MethodFile})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadURLMethodWithoutURLFails(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, &fakeProvider{})

	_, err := pipeline.Upload(context.Background(), Request{Title: "Clip", Genre: "Action", Method: MethodURL})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadFileStoresBlobAndExtension(t *testing.T) {
	provider := &fakeProvider{metadata: metadata.Metadata{Description: "generated", Rating: "9.1/10"}}
	pipeline, cat, mem := newTestPipeline(t, provider)
	ctx := context.Background()

	movie, err := pipeline.Upload(ctx, Request{
		Title:    "Home Video",
		Genre:    "Drama",
		Method:   MethodFile,
		FileName: "clip.mkv",
		File:     strings.NewReader("video-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if movie.OriginalExtension != "mkv" {
		t.Fatalf("expected mkv extension, got %q", movie.OriginalExtension)
	}
	if movie.StorageType != models.StorageLocal {
		t.Fatalf("expected local storage, got %q", movie.StorageType)
	}
	if movie.VideoURL != models.LocalVideoSentinel {
		t.Fatalf("expected local sentinel video url, got %q", movie.VideoURL)
	}
	if movie.Description != "generated" || movie.Rating != "9.1/10" {
		t.Fatalf("expected generated metadata, got %+v", movie)
	}

	rc, size, err := mem.Open(ctx, movie.ID)
	if err != nil {
		t.Fatalf("expected blob under movie id: %v", err)
	}
	rc.Close()
	if size != int64(len("video-bytes")) {
		t.Fatalf("unexpected blob size %d", size)
	}

	if cat.Movies()[0].ID != movie.ID {
		t.Fatal("expected committed movie at catalog index 0")
	}
}

func TestUploadFileWithoutExtensionDefaultsMP4(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, &fakeProvider{})

	movie, err := pipeline.Upload(context.Background(), Request{
		Title:    "Raw",
		Genre:    "Drama",
		Method:   MethodFile,
		FileName: "rawclip",
		File:     strings.NewReader("bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if movie.OriginalExtension != "mp4" {
		t.Fatalf("expected mp4 default, got %q", movie.OriginalExtension)
	}
}

func TestUploadURLGuessesExtension(t *testing.T) {
	pipeline, _, mem := newTestPipeline(t, &fakeProvider{})
	ctx := context.Background()

	movie, err := pipeline.Upload(ctx, Request{
		Title:       "Remote",
		Genre:       "Action",
		Method:      MethodURL,
		ExternalURL: "https://cdn.example.com/a/movie.mp4?x=1",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if movie.OriginalExtension != "mp4" {
		t.Fatalf("expected mp4 from url, got %q", movie.OriginalExtension)
	}
	if movie.StorageType != models.StorageExternal {
		t.Fatalf("expected external storage, got %q", movie.StorageType)
	}
	if movie.VideoURL != "https://cdn.example.com/a/movie.mp4?x=1" {
		t.Fatalf("expected stored url, got %q", movie.VideoURL)
	}
	if _, _, err := mem.Open(ctx, movie.ID); !errors.Is(err, store.ErrBlobNotFound) {
		t.Fatalf("external upload must not write a blob, got %v", err)
	}
}

func TestUploadMetadataFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	pipeline, cat, _ := newTestPipeline(t, provider)

	movie, err := pipeline.Upload(context.Background(), Request{
		Title:       "Resilient",
		Genre:       "Drama",
		Method:      MethodURL,
		ExternalURL: "https://cdn.example.com/v.mp4",
	})
	if err != nil {
		t.Fatalf("collaborator failure must not abort the upload: %v", err)
	}

	fallback := metadata.Fallback()
	if movie.Description != fallback.Description || movie.Rating != fallback.Rating {
		t.Fatalf("expected fallback metadata, got %+v", movie)
	}
	if cat.Movies()[0].ID != movie.ID {
		t.Fatal("expected movie committed despite collaborator failure")
	}
}

func TestUploadProgressReaches100ThenSettles(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, &fakeProvider{})

	var seen []int
	_, err := pipeline.Upload(context.Background(), Request{
		Title:       "Progress",
		Genre:       "Drama",
		Method:      MethodURL,
		ExternalURL: "https://cdn.example.com/v.mp4",
		Progress:    func(pct int) { seen = append(seen, pct) },
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if len(seen) < 2 {
		t.Fatalf("expected progress reports, got %v", seen)
	}
	if seen[len(seen)-1] != 0 {
		t.Fatalf("expected progress settled at 0, got %v", seen)
	}
	if seen[len(seen)-2] != 100 {
		t.Fatalf("expected progress to reach 100 on success, got %v", seen)
	}
	for i := 1; i < len(seen)-1; i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("expected monotonic progress before settle, got %v", seen)
		}
	}
}

func TestUploadRejectsConcurrentAttempt(t *testing.T) {
	provider := &fakeProvider{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	pipeline, _, _ := newTestPipeline(t, provider)

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Upload(context.Background(), Request{
			Title:       "Slow",
			Genre:       "Drama",
			Method:      MethodURL,
			ExternalURL: "https://cdn.example.com/v.mp4",
		})
		done <- err
	}()

	<-provider.entered

	_, err := pipeline.Upload(context.Background(), Request{
		Title:       "Second",
		Genre:       "Drama",
		Method:      MethodURL,
		ExternalURL: "https://cdn.example.com/v2.mp4",
	})
	if !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("expected upload-in-progress rejection, got %v", err)
	}

	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
}
