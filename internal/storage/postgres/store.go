// Package postgres provides the Postgres-backed roster store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Config controls the Postgres connection pool. A crawl run holds a single connection, so MaxConns
// defaults to 1.
type Config struct {
	DSN            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store implements roster.Store on Postgres. Every insert runs in its own implicit transaction and is
// durable as soon as the call returns.
type Store struct {
	pool pool
}

var _ roster.Store = (*Store)(nil)

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = 1
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", classify(err))
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", classify(err))
	}
	return nil
}

// FindPlayerByURL looks a player up by its profile URL.
func (s *Store) FindPlayerByURL(ctx context.Context, url string) (roster.Player, bool, error) {
	const query = `SELECT id, name, sport, url FROM players WHERE url = $1`
	var p roster.Player
	err := s.pool.QueryRow(ctx, query, url).Scan(&p.ID, &p.Name, &p.Sport, &p.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.Player{}, false, nil
	}
	if err != nil {
		return roster.Player{}, false, fmt.Errorf("find player: %w", classify(err))
	}
	return p, true, nil
}

// InsertPlayer inserts a player and returns its id.
func (s *Store) InsertPlayer(ctx context.Context, name, sport, url string) (int64, error) {
	const query = `
INSERT INTO players (name, sport, url)
VALUES ($1, $2, $3)
ON CONFLICT (url) DO NOTHING
RETURNING id`
	return s.insertReturningID(ctx, "insert player", query, name, sport, url)
}

// ListPlayers returns every player ordered by id.
func (s *Store) ListPlayers(ctx context.Context) ([]roster.Player, error) {
	const query = `SELECT id, name, sport, url FROM players ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", classify(err))
	}
	defer rows.Close()

	var players []roster.Player
	for rows.Next() {
		var p roster.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Sport, &p.URL); err != nil {
			return nil, fmt.Errorf("scan player row: %w", classify(err))
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", classify(err))
	}
	return players, nil
}

// FindTeamByName looks a team up by its unique name.
func (s *Store) FindTeamByName(ctx context.Context, name string) (roster.Team, bool, error) {
	const query = `SELECT id, name FROM teams WHERE name = $1`
	var t roster.Team
	err := s.pool.QueryRow(ctx, query, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.Team{}, false, nil
	}
	if err != nil {
		return roster.Team{}, false, fmt.Errorf("find team: %w", classify(err))
	}
	return t, true, nil
}

// InsertTeam inserts a team and returns its id.
func (s *Store) InsertTeam(ctx context.Context, name string) (int64, error) {
	const query = `
INSERT INTO teams (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING
RETURNING id`
	return s.insertReturningID(ctx, "insert team", query, name)
}

// PlayerTeamExists reports whether the player is linked to the team.
func (s *Store) PlayerTeamExists(ctx context.Context, playerID, teamID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM player_teams WHERE player_id = $1 AND team_id = $2)`
	return s.exists(ctx, "find player team", query, playerID, teamID)
}

// InsertPlayerTeam links a player to a team.
func (s *Store) InsertPlayerTeam(ctx context.Context, playerID, teamID int64) error {
	const query = `
INSERT INTO player_teams (player_id, team_id)
VALUES ($1, $2)
ON CONFLICT (player_id, team_id) DO NOTHING`
	return s.insert(ctx, "insert player team", query, playerID, teamID)
}

// JerseyNumberExists reports whether the number is recorded for the player on the team.
func (s *Store) JerseyNumberExists(ctx context.Context, playerID, teamID int64, number int) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM jersey_numbers WHERE player_id = $1 AND team_id = $2 AND number = $3
)`
	return s.exists(ctx, "find jersey number", query, playerID, teamID, number)
}

// InsertJerseyNumber records a jersey number for the player on the team.
func (s *Store) InsertJerseyNumber(ctx context.Context, playerID, teamID int64, number int) error {
	const query = `
INSERT INTO jersey_numbers (player_id, team_id, number)
VALUES ($1, $2, $3)
ON CONFLICT (player_id, team_id, number) DO NOTHING`
	return s.insert(ctx, "insert jersey number", query, playerID, teamID, number)
}

func (s *Store) insertReturningID(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row when another writer got there first.
		return 0, fmt.Errorf("%s: %w", op, roster.ErrConstraintViolation)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, classify(err))
	}
	return id, nil
}

func (s *Store) insert(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, roster.ErrConstraintViolation)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, classify(err))
	}
	return ok, nil
}
