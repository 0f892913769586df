package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

func TestRosterStoreEnforcesUniqueKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRosterStore()

	playerID, err := store.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, "https://example.com/p/aaronha01.shtml")
	require.NoError(t, err)
	_, err = store.InsertPlayer(ctx, "Hank Aaron", roster.DefaultSport, "https://example.com/p/aaronha01.shtml")
	require.ErrorIs(t, err, roster.ErrConstraintViolation)

	teamID, err := store.InsertTeam(ctx, "Braves")
	require.NoError(t, err)
	_, err = store.InsertTeam(ctx, "Braves")
	require.ErrorIs(t, err, roster.ErrConstraintViolation)

	require.NoError(t, store.InsertPlayerTeam(ctx, playerID, teamID))
	require.ErrorIs(t, store.InsertPlayerTeam(ctx, playerID, teamID), roster.ErrConstraintViolation)

	require.NoError(t, store.InsertJerseyNumber(ctx, playerID, teamID, 44))
	require.NoError(t, store.InsertJerseyNumber(ctx, playerID, teamID, 5))
	require.ErrorIs(t, store.InsertJerseyNumber(ctx, playerID, teamID, 44), roster.ErrConstraintViolation)

	players, teams, links, numbers := store.Counts()
	assert.Equal(t, []int{1, 1, 1, 2}, []int{players, teams, links, numbers})
}

func TestRosterStoreLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRosterStore()

	_, found, err := store.FindPlayerByURL(ctx, "https://example.com/p/x01.shtml")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := store.InsertPlayer(ctx, "X", roster.DefaultSport, "https://example.com/p/x01.shtml")
	require.NoError(t, err)
	p, found, err := store.FindPlayerByURL(ctx, "https://example.com/p/x01.shtml")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, p.ID)

	teamID, err := store.InsertTeam(ctx, "Team")
	require.NoError(t, err)
	team, found, err := store.FindTeamByName(ctx, "Team")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, teamID, team.ID)

	exists, err := store.PlayerTeamExists(ctx, id, teamID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = store.JerseyNumberExists(ctx, id, teamID, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRosterStoreRejectsDanglingReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRosterStore()
	teamID, err := store.InsertTeam(ctx, "Team")
	require.NoError(t, err)

	require.Error(t, store.InsertPlayerTeam(ctx, 99, teamID))
	require.Error(t, store.InsertJerseyNumber(ctx, 99, teamID, 1))
}

func TestRosterStoreDeleteCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRosterStore()
	playerID, err := store.InsertPlayer(ctx, "X", roster.DefaultSport, "u")
	require.NoError(t, err)
	teamID, err := store.InsertTeam(ctx, "Team")
	require.NoError(t, err)
	require.NoError(t, store.InsertPlayerTeam(ctx, playerID, teamID))
	require.NoError(t, store.InsertJerseyNumber(ctx, playerID, teamID, 3))

	store.DeletePlayer(playerID)

	players, teams, links, numbers := store.Counts()
	assert.Equal(t, []int{0, 1, 0, 0}, []int{players, teams, links, numbers})
	list, err := store.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
