package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/storage/memory"
)

const aaronURL = "https://www.example.com/players/a/aaronha01.shtml"

func TestReconcilePlayerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRosterStore()
	r := New(store, zap.NewNop())

	entries := []roster.ListingEntry{
		{Name: "Hank Aaron", URL: aaronURL},
		{Name: "Tommie Aaron", URL: "https://www.example.com/players/a/aaronto01.shtml"},
	}
	for _, e := range entries {
		outcome, err := r.ReconcilePlayer(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, roster.OutcomeInserted, outcome)
	}
	for _, e := range entries {
		outcome, err := r.ReconcilePlayer(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, roster.OutcomeSkipped, outcome)
	}

	players := store.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "Hank Aaron", players[0].Name)
	assert.Equal(t, roster.DefaultSport, players[0].Sport)
	assert.Equal(t, aaronURL, players[0].URL)
}

func TestReconcilePlayerReportsSkipAtInfo(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	r := New(memory.NewRosterStore(), zap.New(core))

	entry := roster.ListingEntry{Name: "Hank Aaron", URL: aaronURL}
	_, err := r.ReconcilePlayer(ctx, entry)
	require.NoError(t, err)
	_, err = r.ReconcilePlayer(ctx, entry)
	require.NoError(t, err)

	skips := logs.FilterMessage("player already known").All()
	require.Len(t, skips, 1)
	assert.Equal(t, aaronURL, skips[0].ContextMap()["url"])
}

func TestReconcilePlayerWithSport(t *testing.T) {
	store := memory.NewRosterStore()
	r := New(store, nil, WithSport("Softball"))

	_, err := r.ReconcilePlayer(context.Background(), roster.ListingEntry{Name: "A", URL: aaronURL})
	require.NoError(t, err)
	assert.Equal(t, "Softball", store.Players()[0].Sport)
}

func TestReconcileUniformDistinctTeams(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRosterStore()
	r := New(store, zap.NewNop())
	playerID, err := store.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, aaronURL)
	require.NoError(t, err)

	first, err := r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Some Team", Number: 5})
	require.NoError(t, err)
	assert.Equal(t, roster.UniformOutcome{
		TeamID: first.TeamID,
		Team:   roster.OutcomeInserted,
		Link:   roster.OutcomeInserted,
		Number: roster.OutcomeInserted,
	}, first)

	second, err := r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Other Team", Number: 5})
	require.NoError(t, err)
	assert.NotEqual(t, first.TeamID, second.TeamID)

	_, teams, links, numbers := store.Counts()
	assert.Equal(t, 2, teams)
	assert.Equal(t, 2, links)
	assert.Equal(t, 2, numbers)
}

func TestReconcileUniformSameTeamTwice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRosterStore()
	r := New(store, zap.NewNop())
	playerID, err := store.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, aaronURL)
	require.NoError(t, err)

	_, err = r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Some Team", Number: 5})
	require.NoError(t, err)
	out, err := r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Some Team", Number: 5})
	require.NoError(t, err)
	assert.Equal(t, roster.OutcomeSkipped, out.Team)
	assert.Equal(t, roster.OutcomeSkipped, out.Link)
	assert.Equal(t, roster.OutcomeSkipped, out.Number)

	_, teams, links, numbers := store.Counts()
	assert.Equal(t, 1, teams)
	assert.Equal(t, 1, links)
	assert.Equal(t, 1, numbers)
}

func TestReconcileUniformChecksAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRosterStore()
	r := New(store, zap.NewNop())
	playerID, err := store.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, aaronURL)
	require.NoError(t, err)
	otherID, err := store.InsertPlayer(ctx, "Other", roster.DefaultSport, "https://www.example.com/players/o/otherxx01.shtml")
	require.NoError(t, err)

	_, err = r.ReconcileUniform(ctx, otherID, roster.UniformEntry{Team: "Braves", Number: 44})
	require.NoError(t, err)

	// Existing team, missing link and number.
	out, err := r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Braves", Number: 44})
	require.NoError(t, err)
	assert.Equal(t, roster.OutcomeSkipped, out.Team)
	assert.Equal(t, roster.OutcomeInserted, out.Link)
	assert.Equal(t, roster.OutcomeInserted, out.Number)

	// Existing team and link, new number.
	out, err = r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Braves", Number: 5})
	require.NoError(t, err)
	assert.Equal(t, roster.OutcomeSkipped, out.Link)
	assert.Equal(t, roster.OutcomeInserted, out.Number)

	_, teams, links, numbers := store.Counts()
	assert.Equal(t, 1, teams)
	assert.Equal(t, 2, links)
	assert.Equal(t, 3, numbers)
}

// racingStore hides rows from existence checks so inserts hit the unique constraint.
type racingStore struct {
	*memory.RosterStore
	teamLookups map[string]int
}

func (s *racingStore) FindTeamByName(ctx context.Context, name string) (roster.Team, bool, error) {
	s.teamLookups[name]++
	if s.teamLookups[name] == 1 {
		return roster.Team{}, false, nil
	}
	return s.RosterStore.FindTeamByName(ctx, name)
}

func (s *racingStore) FindPlayerByURL(context.Context, string) (roster.Player, bool, error) {
	return roster.Player{}, false, nil
}

func (s *racingStore) PlayerTeamExists(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (s *racingStore) JerseyNumberExists(context.Context, int64, int64, int) (bool, error) {
	return false, nil
}

func TestReconcileConflictsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewRosterStore()
	playerID, err := mem.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, aaronURL)
	require.NoError(t, err)
	teamID, err := mem.InsertTeam(ctx, "Braves")
	require.NoError(t, err)
	require.NoError(t, mem.InsertPlayerTeam(ctx, playerID, teamID))
	require.NoError(t, mem.InsertJerseyNumber(ctx, playerID, teamID, 44))

	r := New(&racingStore{RosterStore: mem, teamLookups: map[string]int{}}, zap.NewNop())

	outcome, err := r.ReconcilePlayer(ctx, roster.ListingEntry{Name: "Hank Aaron", URL: aaronURL})
	require.NoError(t, err)
	assert.Equal(t, roster.OutcomeConflict, outcome)

	out, err := r.ReconcileUniform(ctx, playerID, roster.UniformEntry{Team: "Braves", Number: 44})
	require.NoError(t, err)
	assert.Equal(t, teamID, out.TeamID)
	assert.Equal(t, roster.OutcomeConflict, out.Team)
	assert.Equal(t, roster.OutcomeConflict, out.Link)
	assert.Equal(t, roster.OutcomeConflict, out.Number)

	players, teams, links, numbers := mem.Counts()
	assert.Equal(t, []int{1, 1, 1, 1}, []int{players, teams, links, numbers})
}

type unavailableStore struct {
	*memory.RosterStore
}

func (unavailableStore) FindTeamByName(context.Context, string) (roster.Team, bool, error) {
	return roster.Team{}, false, fmt.Errorf("query teams: %w", roster.ErrStoreUnavailable)
}

func (unavailableStore) FindPlayerByURL(context.Context, string) (roster.Player, bool, error) {
	return roster.Player{}, false, fmt.Errorf("query players: %w", roster.ErrStoreUnavailable)
}

func TestReconcilePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	r := New(unavailableStore{memory.NewRosterStore()}, zap.NewNop())

	_, err := r.ReconcilePlayer(ctx, roster.ListingEntry{Name: "A", URL: aaronURL})
	require.Error(t, err)
	assert.True(t, roster.IsFatal(err))

	_, err = r.ReconcileUniform(ctx, 1, roster.UniformEntry{Team: "Braves", Number: 1})
	require.Error(t, err)
	assert.True(t, roster.IsFatal(err))
}
