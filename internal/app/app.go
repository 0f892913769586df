// Package app wires configuration into long-lived crawl services and releases them on Close.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/archive"
	"github.com/JakeFAU/roster-crawler/internal/config"
	"github.com/JakeFAU/roster-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/roster-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/roster-crawler/internal/pacing"
	"github.com/JakeFAU/roster-crawler/internal/parser"
	"github.com/JakeFAU/roster-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/roster-crawler/internal/reconcile"
	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/server"
	gcsstorage "github.com/JakeFAU/roster-crawler/internal/storage/gcs"
	localstorage "github.com/JakeFAU/roster-crawler/internal/storage/local"
	"github.com/JakeFAU/roster-crawler/internal/storage/postgres"
)

// App holds the services a crawl command needs for the duration of one run.
type App struct {
	cfg           config.Config
	logger        *zap.Logger
	store         *postgres.Store
	gcs           *gcsstorage.BlobStore
	metricsServer *server.Server
	driver        *crawler.Driver
}

// Build connects to the store, prepares the optional archive and metrics endpoint, and assembles the
// crawl driver. Close must be called when Build succeeds.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger, store: store}

	blobs, err := a.setupArchive(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.driver, err = NewDriver(cfg, store, blobs, nil, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		a.metricsServer = server.New(cfg.Metrics.Addr, store, logger.Named("metrics"))
		a.metricsServer.Start()
	}
	return a, nil
}

// OpenStore connects to the configured Postgres database.
func OpenStore(ctx context.Context, cfg config.Config) (*postgres.Store, error) {
	if err := cfg.RequireDSN(); err != nil {
		return nil, err
	}
	store, err := postgres.New(ctx, postgres.Config{
		DSN:            cfg.DB.DSN,
		MaxConns:       cfg.DB.MaxConns,
		ConnectTimeout: cfg.ConnectTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	return store, nil
}

// NewDriver assembles a crawl driver over store. blobs may be nil to disable the archive; transport
// may be nil to use the default HTTP transport.
func NewDriver(
	cfg config.Config,
	store roster.Store,
	blobs roster.BlobStore,
	transport http.RoundTripper,
	logger *zap.Logger,
) (*crawler.Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parserLog := logger.Named("parser")
	listing, err := parser.NewListingParser(
		cfg.SiteBase(),
		parser.WithListingObserver(crawler.RejectionLogger(parserLog, roster.ModeListing)),
	)
	if err != nil {
		return nil, fmt.Errorf("listing parser init failed: %w", err)
	}

	pacer, err := newPacer(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := ratelimit.Wrap(
		collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Site.UserAgent,
			Headers:       cfg.HTTPHeaders(),
			RespectRobots: cfg.Site.RespectRobots,
			Timeout:       cfg.FetchTimeout(),
			Transport:     transport,
		}),
		ratelimit.New(ratelimit.Config{PerMinute: cfg.Site.RequestsPerMinute}),
	)

	opts := []crawler.Option{crawler.WithLogger(logger.Named("crawler"))}
	if blobs != nil {
		arch, err := archive.New(blobs, cfg.Archive.Prefix)
		if err != nil {
			return nil, fmt.Errorf("archive init failed: %w", err)
		}
		opts = append(opts, crawler.WithArchiver(arch))
	}

	driver, err := crawler.New(cfg.Site.ListingURLTemplate, crawler.Deps{
		Fetcher:    fetcher,
		Listing:    listing,
		Detail:     parser.NewDetailParser(crawler.RejectionLogger(parserLog, roster.ModeDetail)),
		Reconciler: reconcile.New(store, logger.Named("reconcile")),
		Store:      store,
		Pacer:      pacer,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("driver init failed: %w", err)
	}
	return driver, nil
}

func newPacer(cfg config.Config) (roster.Pacer, error) {
	minDelay, maxDelay := cfg.PacingBounds()
	if maxDelay == 0 {
		return pacing.None{}, nil
	}
	jitter, err := pacing.NewJitter(minDelay, maxDelay)
	if err != nil {
		return nil, fmt.Errorf("pacing init failed: %w", err)
	}
	return jitter, nil
}

func (a *App) setupArchive(ctx context.Context) (roster.BlobStore, error) {
	switch a.cfg.Archive.Backend {
	case config.ArchiveGCS:
		a.logger.Info("using GCS archive backend", zap.String("bucket", a.cfg.Archive.GCSBucket))
		blobs, err := gcsstorage.Open(ctx, gcsstorage.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs archive init failed: %w", err)
		}
		a.gcs = blobs
		return blobs, nil
	case config.ArchiveLocal:
		a.logger.Info("using local archive backend", zap.String("path", a.cfg.Archive.BaseDir))
		blobs, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local archive init failed: %w", err)
		}
		return blobs, nil
	default:
		a.logger.Debug("page archive disabled")
		return nil, nil
	}
}

// Driver returns the crawl driver.
func (a *App) Driver() *crawler.Driver {
	return a.driver
}

// Close releases every service Build acquired.
func (a *App) Close(ctx context.Context) {
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	a.store.Close()
	a.logger.Info("store connection released")
}
