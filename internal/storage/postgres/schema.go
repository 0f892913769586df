package postgres

import (
	"context"
	"fmt"
)

// createStatements provisions the roster tables. Association rows cascade when their player or team
// is deleted.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS players (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    sport TEXT NOT NULL DEFAULT 'Baseball',
    url TEXT UNIQUE NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS teams (
    id SERIAL PRIMARY KEY,
    name TEXT UNIQUE NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS player_teams (
    id SERIAL PRIMARY KEY,
    player_id INT REFERENCES players(id) ON DELETE CASCADE,
    team_id INT REFERENCES teams(id) ON DELETE CASCADE,
    UNIQUE (player_id, team_id)
)`,
	`CREATE TABLE IF NOT EXISTS player_colleges (
    id SERIAL PRIMARY KEY,
    player_id INT REFERENCES players(id) ON DELETE CASCADE,
    college TEXT NOT NULL,
    UNIQUE (player_id, college)
)`,
	`CREATE TABLE IF NOT EXISTS jersey_numbers (
    id SERIAL PRIMARY KEY,
    player_id INT REFERENCES players(id) ON DELETE CASCADE,
    team_id INT REFERENCES teams(id) ON DELETE CASCADE,
    number INT NOT NULL,
    UNIQUE (player_id, team_id, number)
)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS jersey_numbers CASCADE`,
	`DROP TABLE IF EXISTS player_colleges CASCADE`,
	`DROP TABLE IF EXISTS player_teams CASCADE`,
	`DROP TABLE IF EXISTS teams CASCADE`,
	`DROP TABLE IF EXISTS players CASCADE`,
}

// EnsureSchema creates any missing roster tables without touching existing data.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.inTx(ctx, "ensure schema", createStatements)
}

// ResetSchema drops every roster table and recreates it empty. All data is lost.
func (s *Store) ResetSchema(ctx context.Context) error {
	statements := make([]string, 0, len(dropStatements)+len(createStatements))
	statements = append(statements, dropStatements...)
	statements = append(statements, createStatements...)
	return s.inTx(ctx, "reset schema", statements)
}

func (s *Store) inTx(ctx context.Context, op string, statements []string) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, classify(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	for _, stmt := range statements {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, classify(err))
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, classify(err))
	}
	return nil
}
