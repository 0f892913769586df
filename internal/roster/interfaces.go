package roster

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves a page. Failures are reported as *FetchFailure or *NetworkFailure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Store is the persisted relational model. Lookups report presence with a boolean; inserts commit
// immediately and return ErrConstraintViolation when a unique key rejects the row.
type Store interface {
	FindPlayerByURL(ctx context.Context, url string) (Player, bool, error)
	InsertPlayer(ctx context.Context, name, sport, url string) (int64, error)
	ListPlayers(ctx context.Context) ([]Player, error)

	FindTeamByName(ctx context.Context, name string) (Team, bool, error)
	InsertTeam(ctx context.Context, name string) (int64, error)

	PlayerTeamExists(ctx context.Context, playerID, teamID int64) (bool, error)
	InsertPlayerTeam(ctx context.Context, playerID, teamID int64) error

	JerseyNumberExists(ctx context.Context, playerID, teamID int64, number int) (bool, error)
	InsertJerseyNumber(ctx context.Context, playerID, teamID int64, number int) error
}

// Pacer enforces the delay between consecutive fetches.
type Pacer interface {
	Pause(ctx context.Context) (time.Duration, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
