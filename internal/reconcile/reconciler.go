// Package reconcile maps extracted facts onto persisted rows without creating duplicates.
//
// Every decision is check-then-insert. The existence check is the primary guard; the store's
// unique constraints catch the race window between check and insert, in which case the
// candidate is reported as a conflict and the crawl moves on.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Table names used in logs and metrics.
const (
	TablePlayers       = "players"
	TableTeams         = "teams"
	TablePlayerTeams   = "player_teams"
	TableJerseyNumbers = "jersey_numbers"
)

// Reconciler applies listing and detail facts to a roster.Store.
type Reconciler struct {
	store  roster.Store
	sport  string
	logger *zap.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithSport overrides the sport recorded for new players.
func WithSport(sport string) Option {
	return func(r *Reconciler) {
		if sport != "" {
			r.sport = sport
		}
	}
}

// New builds a Reconciler. A nil logger is replaced with a no-op logger.
func New(store roster.Store, logger *zap.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{store: store, sport: roster.DefaultSport, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcilePlayer inserts the candidate unless a player with the same profile URL exists.
func (r *Reconciler) ReconcilePlayer(ctx context.Context, entry roster.ListingEntry) (roster.Outcome, error) {
	log := r.logger.With(zap.String("name", entry.Name), zap.String("url", entry.URL))

	existing, found, err := r.store.FindPlayerByURL(ctx, entry.URL)
	if err != nil {
		return "", fmt.Errorf("find player %q: %w", entry.URL, err)
	}
	if found {
		log.Info("player already known", zap.Int64("player_id", existing.ID))
		return r.record(TablePlayers, roster.OutcomeSkipped), nil
	}

	id, err := r.store.InsertPlayer(ctx, entry.Name, r.sport, entry.URL)
	switch {
	case errors.Is(err, roster.ErrConstraintViolation):
		log.Warn("player inserted concurrently", zap.Error(err))
		return r.record(TablePlayers, roster.OutcomeConflict), nil
	case err != nil:
		return "", fmt.Errorf("insert player %q: %w", entry.URL, err)
	}
	log.Info("player inserted", zap.Int64("player_id", id))
	return r.record(TablePlayers, roster.OutcomeInserted), nil
}

// ReconcileUniform ensures the team, the player-team link, and the jersey number exist. The three
// checks are independent and always run.
func (r *Reconciler) ReconcileUniform(
	ctx context.Context,
	playerID int64,
	entry roster.UniformEntry,
) (roster.UniformOutcome, error) {
	log := r.logger.With(
		zap.Int64("player_id", playerID),
		zap.String("team", entry.Team),
		zap.Int("number", entry.Number),
	)
	var out roster.UniformOutcome

	teamID, teamOutcome, err := r.ensureTeam(ctx, entry.Team)
	if err != nil {
		return out, err
	}
	out.TeamID = teamID
	out.Team = r.record(TableTeams, teamOutcome)
	if teamOutcome == roster.OutcomeConflict {
		log.Warn("team inserted concurrently; using existing row", zap.Int64("team_id", teamID))
	}

	exists, err := r.store.PlayerTeamExists(ctx, playerID, teamID)
	if err != nil {
		return out, fmt.Errorf("find player team (%d, %d): %w", playerID, teamID, err)
	}
	out.Link, err = r.insertUnless(exists, TablePlayerTeams, func() error {
		return r.store.InsertPlayerTeam(ctx, playerID, teamID)
	})
	if err != nil {
		return out, fmt.Errorf("insert player team (%d, %d): %w", playerID, teamID, err)
	}

	exists, err = r.store.JerseyNumberExists(ctx, playerID, teamID, entry.Number)
	if err != nil {
		return out, fmt.Errorf("find jersey number (%d, %d, %d): %w", playerID, teamID, entry.Number, err)
	}
	out.Number, err = r.insertUnless(exists, TableJerseyNumbers, func() error {
		return r.store.InsertJerseyNumber(ctx, playerID, teamID, entry.Number)
	})
	if err != nil {
		return out, fmt.Errorf("insert jersey number (%d, %d, %d): %w", playerID, teamID, entry.Number, err)
	}

	log.Info("uniform reconciled",
		zap.Int64("team_id", teamID),
		zap.String("team_outcome", string(out.Team)),
		zap.String("link_outcome", string(out.Link)),
		zap.String("number_outcome", string(out.Number)),
	)
	return out, nil
}

// ensureTeam returns the id for name, inserting it when absent. A lost insert race re-reads the row
// the other writer created.
func (r *Reconciler) ensureTeam(ctx context.Context, name string) (int64, roster.Outcome, error) {
	team, found, err := r.store.FindTeamByName(ctx, name)
	if err != nil {
		return 0, "", fmt.Errorf("find team %q: %w", name, err)
	}
	if found {
		return team.ID, roster.OutcomeSkipped, nil
	}

	id, err := r.store.InsertTeam(ctx, name)
	if err == nil {
		return id, roster.OutcomeInserted, nil
	}
	if !errors.Is(err, roster.ErrConstraintViolation) {
		return 0, "", fmt.Errorf("insert team %q: %w", name, err)
	}
	team, found, err = r.store.FindTeamByName(ctx, name)
	if err != nil {
		return 0, "", fmt.Errorf("re-read team %q: %w", name, err)
	}
	if !found {
		return 0, "", fmt.Errorf("team %q rejected as duplicate but not found: %w", name, roster.ErrConstraintViolation)
	}
	return team.ID, roster.OutcomeConflict, nil
}

func (r *Reconciler) insertUnless(exists bool, table string, insert func() error) (roster.Outcome, error) {
	if exists {
		return r.record(table, roster.OutcomeSkipped), nil
	}
	err := insert()
	switch {
	case errors.Is(err, roster.ErrConstraintViolation):
		r.logger.Warn("row inserted concurrently", zap.String("table", table), zap.Error(err))
		return r.record(table, roster.OutcomeConflict), nil
	case err != nil:
		return "", err
	}
	return r.record(table, roster.OutcomeInserted), nil
}

func (r *Reconciler) record(table string, outcome roster.Outcome) roster.Outcome {
	metrics.ObserveRow(table, string(outcome))
	return outcome
}
