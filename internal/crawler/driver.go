package crawler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// LetterPlaceholder is replaced by the current letter in the listing URL template.
const LetterPlaceholder = "{letter}"

// Work unit results.
const (
	ResultOK         = "ok"
	ResultFetchError = "fetch_error"
	ResultParseError = "parse_error"
	ResultEmpty      = "empty"
	ResultPartial    = "partial"
)

// ListingParser extracts player candidates from a listing page.
type ListingParser interface {
	Parse(body []byte) (iter.Seq[roster.ListingEntry], error)
}

// DetailParser extracts uniform candidates from a player page.
type DetailParser interface {
	Parse(body []byte) (iter.Seq[roster.UniformEntry], bool, error)
}

// Reconciler applies candidates to the store.
type Reconciler interface {
	ReconcilePlayer(ctx context.Context, entry roster.ListingEntry) (roster.Outcome, error)
	ReconcileUniform(ctx context.Context, playerID int64, entry roster.UniformEntry) (roster.UniformOutcome, error)
}

// Archiver keeps a copy of fetched pages.
type Archiver interface {
	Archive(ctx context.Context, mode roster.Mode, page roster.Page) (string, error)
}

// Deps are the collaborators a Driver needs.
type Deps struct {
	Fetcher    roster.Fetcher
	Listing    ListingParser
	Detail     DetailParser
	Reconciler Reconciler
	Store      roster.Store
	Pacer      roster.Pacer
}

// Driver runs listing and detail crawls sequentially.
type Driver struct {
	deps            Deps
	listingTemplate string
	archiver        Archiver
	logger          *zap.Logger
	newRunID        func() (string, error)
	now             func() time.Time
}

// Option customizes a Driver.
type Option func(*Driver)

// WithArchiver stores every fetched page. Archive failures are logged and do not fail the unit.
func WithArchiver(a Archiver) Option {
	return func(d *Driver) { d.archiver = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(gen func() (string, error)) Option {
	return func(d *Driver) {
		if gen != nil {
			d.newRunID = gen
		}
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// New validates deps and builds a Driver. listingTemplate must contain LetterPlaceholder.
func New(listingTemplate string, deps Deps, opts ...Option) (*Driver, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("crawler: fetcher is required")
	case deps.Listing == nil || deps.Detail == nil:
		return nil, errors.New("crawler: listing and detail parsers are required")
	case deps.Reconciler == nil:
		return nil, errors.New("crawler: reconciler is required")
	case deps.Store == nil:
		return nil, errors.New("crawler: store is required")
	case deps.Pacer == nil:
		return nil, errors.New("crawler: pacer is required")
	}
	if !strings.Contains(listingTemplate, LetterPlaceholder) {
		return nil, fmt.Errorf("crawler: listing url template %q has no %s placeholder", listingTemplate, LetterPlaceholder)
	}
	d := &Driver{
		deps:            deps,
		listingTemplate: listingTemplate,
		logger:          zap.NewNop(),
		newRunID:        newRunID,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ListingURL returns the listing page URL for letter.
func (d *Driver) ListingURL(letter string) string {
	return strings.ReplaceAll(d.listingTemplate, LetterPlaceholder, letter)
}

// RunListing crawls one listing page per letter and reconciles every player candidate.
func (d *Driver) RunListing(ctx context.Context, letters []string) (Stats, error) {
	stats, log, err := d.start(roster.ModeListing)
	if err != nil {
		return stats, err
	}
	for i, letter := range letters {
		if err := d.between(ctx, i, &stats); err != nil {
			return d.finish(log, stats, err)
		}
		url := d.ListingURL(letter)
		if err := d.listingUnit(ctx, log.With(zap.String("letter", letter), zap.String("url", url)), url, &stats); err != nil {
			return d.finish(log, stats, err)
		}
	}
	return d.finish(log, stats, nil)
}

// RunDetail crawls the profile page of every player present when the run starts and reconciles
// their team and jersey history.
func (d *Driver) RunDetail(ctx context.Context) (Stats, error) {
	stats, log, err := d.start(roster.ModeDetail)
	if err != nil {
		return stats, err
	}
	players, err := d.deps.Store.ListPlayers(ctx)
	if err != nil {
		return d.finish(log, stats, fmt.Errorf("snapshot players: %w", err))
	}
	log.Info("player snapshot taken", zap.Int("players", len(players)))
	for i, player := range players {
		if err := d.between(ctx, i, &stats); err != nil {
			return d.finish(log, stats, err)
		}
		unitLog := log.With(zap.Int64("player_id", player.ID), zap.String("url", player.URL))
		if err := d.detailUnit(ctx, unitLog, player, &stats); err != nil {
			return d.finish(log, stats, err)
		}
	}
	return d.finish(log, stats, nil)
}

func (d *Driver) listingUnit(ctx context.Context, log *zap.Logger, url string, stats *Stats) error {
	page, ok, err := d.fetch(ctx, log, roster.ModeListing, url, stats)
	if err != nil || !ok {
		return err
	}
	seq, err := d.deps.Listing.Parse(page.Body)
	if err != nil {
		log.Warn("listing page unparseable", zap.Error(err))
		stats.unit(roster.ModeListing, ResultParseError)
		return nil
	}

	candidates, failures := 0, 0
	for entry := range seq {
		candidates++
		outcome, err := d.deps.Reconciler.ReconcilePlayer(ctx, entry)
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			failures++
			log.Error("player reconciliation failed", zap.String("name", entry.Name), zap.String("player_url", entry.URL), zap.Error(err))
			continue
		}
		stats.row(outcome)
	}
	stats.Candidates += candidates
	stats.CandidateFailures += failures
	log.Info("listing page processed", zap.Int("candidates", candidates), zap.Int("failures", failures))
	stats.unit(roster.ModeListing, unitResult(candidates, failures))
	return nil
}

func (d *Driver) detailUnit(ctx context.Context, log *zap.Logger, player roster.Player, stats *Stats) error {
	page, ok, err := d.fetch(ctx, log, roster.ModeDetail, player.URL, stats)
	if err != nil || !ok {
		return err
	}
	seq, found, err := d.deps.Detail.Parse(page.Body)
	if err != nil {
		log.Warn("detail page unparseable", zap.Error(err))
		stats.unit(roster.ModeDetail, ResultParseError)
		return nil
	}
	if !found {
		log.Info("no uniform history on page", zap.Error(roster.ErrParseMiss))
		stats.ParseMisses++
		stats.unit(roster.ModeDetail, ResultEmpty)
		return nil
	}

	candidates, failures := 0, 0
	for entry := range seq {
		candidates++
		out, err := d.deps.Reconciler.ReconcileUniform(ctx, player.ID, entry)
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			failures++
			log.Error("uniform reconciliation failed", zap.String("team", entry.Team), zap.Int("number", entry.Number), zap.Error(err))
			continue
		}
		stats.row(out.Team)
		stats.row(out.Link)
		stats.row(out.Number)
	}
	stats.Candidates += candidates
	stats.CandidateFailures += failures
	log.Info("detail page processed", zap.String("name", player.Name), zap.Int("candidates", candidates), zap.Int("failures", failures))
	stats.unit(roster.ModeDetail, unitResult(candidates, failures))
	return nil
}

// fetch returns ok=false when the unit should be skipped. A non-nil error ends the run.
func (d *Driver) fetch(
	ctx context.Context,
	log *zap.Logger,
	mode roster.Mode,
	url string,
	stats *Stats,
) (roster.Page, bool, error) {
	log.Debug("fetching")
	page, err := d.deps.Fetcher.Fetch(ctx, url)
	stats.Fetches++
	if err != nil {
		if ctx.Err() != nil {
			return roster.Page{}, false, ctx.Err()
		}
		var (
			fetchFailure   *roster.FetchFailure
			networkFailure *roster.NetworkFailure
		)
		outcome := metrics.FetchNetworkError
		switch {
		case errors.As(err, &fetchFailure):
			outcome = metrics.FetchHTTPError
			log.Warn("fetch failed; skipping", zap.Int("status", fetchFailure.Status))
		case errors.As(err, &networkFailure):
			log.Warn("network failure; skipping", zap.Error(networkFailure.Cause))
		default:
			log.Warn("fetch error; skipping", zap.Error(err))
		}
		metrics.ObserveFetch(string(mode), outcome, 0)
		stats.FetchFailures++
		stats.unit(mode, ResultFetchError)
		return roster.Page{}, false, nil
	}
	metrics.ObserveFetch(string(mode), metrics.FetchOK, page.Duration)
	log.Debug("fetched", zap.Int("status", page.StatusCode), zap.Int("bytes", len(page.Body)), zap.Duration("duration", page.Duration))

	if d.archiver != nil {
		uri, err := d.archiver.Archive(ctx, mode, page)
		if err != nil {
			log.Warn("archive failed", zap.Error(err))
		} else {
			stats.Archived++
			log.Debug("page archived", zap.String("uri", uri))
		}
	}
	return page, true, nil
}

// between enforces the pacing delay before every fetch but the first.
func (d *Driver) between(ctx context.Context, index int, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index == 0 {
		return nil
	}
	delay, err := d.deps.Pacer.Pause(ctx)
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	stats.Paused += delay
	metrics.ObservePacingDelay(delay)
	return nil
}

func (d *Driver) start(mode roster.Mode) (Stats, *zap.Logger, error) {
	runID, err := d.newRunID()
	if err != nil {
		return Stats{}, nil, fmt.Errorf("generate run id: %w", err)
	}
	stats := Stats{RunID: runID, Mode: mode, StartedAt: d.now()}
	log := d.logger.With(zap.String("run_id", runID), zap.String("mode", string(mode)))
	log.Info("crawl started")
	return stats, log, nil
}

func (d *Driver) finish(log *zap.Logger, stats Stats, err error) (Stats, error) {
	stats.FinishedAt = d.now()
	fields := stats.fields()
	if err != nil {
		log.Error("crawl aborted", append(fields, zap.Error(err))...)
		return stats, err
	}
	log.Info("crawl finished", fields...)
	return stats, nil
}

func fatal(ctx context.Context, err error) bool {
	return roster.IsFatal(err) || ctx.Err() != nil
}

func unitResult(candidates, failures int) string {
	switch {
	case failures > 0:
		return ResultPartial
	case candidates == 0:
		return ResultEmpty
	default:
		return ResultOK
	}
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
