package app

import (
	"context"
	"fmt"

	"github.com/cinemax/cinemax/internal/auth"
	"github.com/cinemax/cinemax/internal/catalog"
	"github.com/cinemax/cinemax/internal/config"
	"github.com/cinemax/cinemax/internal/metadata"
	"github.com/cinemax/cinemax/internal/playback"
	"github.com/cinemax/cinemax/internal/snapshot"
	"github.com/cinemax/cinemax/internal/state"
	"github.com/cinemax/cinemax/internal/storage"
	"github.com/cinemax/cinemax/internal/store"
	"github.com/cinemax/cinemax/internal/upload"
)

// Dependencies bundles the wired application components.
type Dependencies struct {
	State    *state.Container
	Auth     *auth.Manager
	Catalog  *catalog.Manager
	Uploader *upload.Pipeline
	Syncer   *snapshot.Syncer
	Resolver *playback.Resolver

	close func()
}

// Close releases the underlying stores.
func (d *Dependencies) Close() {
	if d.close != nil {
		d.close()
	}
}

// buildDependencies opens the configured persistence backends and wires
// the concrete implementations together.
func buildDependencies(ctx context.Context, cfg config.Config) (*Dependencies, error) {
	records, blobs, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st := state.NewContainer(records)
	if err := st.Load(ctx); err != nil {
		closeStores()
		return nil, fmt.Errorf("load state: %w", err)
	}

	cat := catalog.NewManager(st)

	var provider metadata.Provider = metadata.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MetadataTimeout)
	provider = metadata.NewThrottledProvider(provider, cfg.MetadataPerMin)
	provider = metadata.NewCachingProvider(provider, cfg.MetadataTTL)

	return &Dependencies{
		State:    st,
		Auth:     auth.NewManager(st),
		Catalog:  cat,
		Uploader: upload.NewPipeline(blobs, provider, cat),
		Syncer:   snapshot.NewSyncer(st),
		Resolver: playback.NewResolver(blobs),
		close:    closeStores,
	}, nil
}

// openStores selects the record and blob backends: PostgreSQL when a
// database URL is configured, otherwise the on-device store; blobs can
// additionally be redirected to an S3-compatible bucket.
func openStores(ctx context.Context, cfg config.Config) (store.RecordStore, store.BlobStore, func(), error) {
	var (
		records store.RecordStore
		blobs   store.BlobStore
		closers []func()
	)

	if cfg.UseDatabase() {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		records, blobs = pg, pg
		closers = append(closers, pool.Close)
	} else {
		bs, err := store.OpenBolt(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		records, blobs = bs, bs
		closers = append(closers, func() { bs.Close() })
	}

	if cfg.UseObjectStore() {
		s3blobs, err := storage.NewS3BlobStore(ctx, cfg.ObjectStore)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, err
		}
		blobs = s3blobs
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return records, blobs, closeAll, nil
}
