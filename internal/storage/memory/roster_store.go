// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

type linkKey struct {
	playerID int64
	teamID   int64
}

type numberKey struct {
	playerID int64
	teamID   int64
	number   int
}

// RosterStore implements roster.Store with the same unique keys as the Postgres schema.
type RosterStore struct {
	mu         sync.RWMutex
	nextID     int64
	players    map[int64]roster.Player
	playerURLs map[string]int64
	teams      map[string]int64
	links      map[linkKey]struct{}
	numbers    map[numberKey]struct{}
}

var _ roster.Store = (*RosterStore)(nil)

// NewRosterStore constructs an empty RosterStore.
func NewRosterStore() *RosterStore {
	return &RosterStore{
		players:    make(map[int64]roster.Player),
		playerURLs: make(map[string]int64),
		teams:      make(map[string]int64),
		links:      make(map[linkKey]struct{}),
		numbers:    make(map[numberKey]struct{}),
	}
}

// FindPlayerByURL looks a player up by profile URL.
func (s *RosterStore) FindPlayerByURL(_ context.Context, url string) (roster.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.playerURLs[url]
	if !ok {
		return roster.Player{}, false, nil
	}
	return s.players[id], true, nil
}

// InsertPlayer stores a player, rejecting duplicate URLs.
func (s *RosterStore) InsertPlayer(_ context.Context, name, sport, url string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.playerURLs[url]; exists {
		return 0, fmt.Errorf("insert player: %w", roster.ErrConstraintViolation)
	}
	s.nextID++
	s.players[s.nextID] = roster.Player{ID: s.nextID, Name: name, Sport: sport, URL: url}
	s.playerURLs[url] = s.nextID
	return s.nextID, nil
}

// ListPlayers returns a snapshot of every player ordered by id.
func (s *RosterStore) ListPlayers(_ context.Context) ([]roster.Player, error) {
	return s.Players(), nil
}

// FindTeamByName looks a team up by name.
func (s *RosterStore) FindTeamByName(_ context.Context, name string) (roster.Team, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.teams[name]
	if !ok {
		return roster.Team{}, false, nil
	}
	return roster.Team{ID: id, Name: name}, true, nil
}

// InsertTeam stores a team, rejecting duplicate names.
func (s *RosterStore) InsertTeam(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[name]; exists {
		return 0, fmt.Errorf("insert team: %w", roster.ErrConstraintViolation)
	}
	s.nextID++
	s.teams[name] = s.nextID
	return s.nextID, nil
}

// PlayerTeamExists reports whether the link exists.
func (s *RosterStore) PlayerTeamExists(_ context.Context, playerID, teamID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[linkKey{playerID, teamID}]
	return ok, nil
}

// InsertPlayerTeam stores a link, rejecting duplicates and dangling references.
func (s *RosterStore) InsertPlayerTeam(_ context.Context, playerID, teamID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(playerID, teamID); err != nil {
		return fmt.Errorf("insert player team: %w", err)
	}
	key := linkKey{playerID, teamID}
	if _, exists := s.links[key]; exists {
		return fmt.Errorf("insert player team: %w", roster.ErrConstraintViolation)
	}
	s.links[key] = struct{}{}
	return nil
}

// JerseyNumberExists reports whether the number is recorded.
func (s *RosterStore) JerseyNumberExists(_ context.Context, playerID, teamID int64, number int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.numbers[numberKey{playerID, teamID, number}]
	return ok, nil
}

// InsertJerseyNumber stores a jersey number, rejecting duplicates and dangling references.
func (s *RosterStore) InsertJerseyNumber(_ context.Context, playerID, teamID int64, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(playerID, teamID); err != nil {
		return fmt.Errorf("insert jersey number: %w", err)
	}
	key := numberKey{playerID, teamID, number}
	if _, exists := s.numbers[key]; exists {
		return fmt.Errorf("insert jersey number: %w", roster.ErrConstraintViolation)
	}
	s.numbers[key] = struct{}{}
	return nil
}

// DeletePlayer removes a player and cascades to its links and jersey numbers.
func (s *RosterStore) DeletePlayer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	delete(s.playerURLs, p.URL)
	for k := range s.links {
		if k.playerID == id {
			delete(s.links, k)
		}
	}
	for k := range s.numbers {
		if k.playerID == id {
			delete(s.numbers, k)
		}
	}
}

// Players returns every player ordered by id.
func (s *RosterStore) Players() []roster.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]roster.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts reports the number of rows per table.
func (s *RosterStore) Counts() (players, teams, links, numbers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), len(s.teams), len(s.links), len(s.numbers)
}

func (s *RosterStore) checkRefs(playerID, teamID int64) error {
	if _, ok := s.players[playerID]; !ok {
		return fmt.Errorf("player %d does not exist", playerID)
	}
	for _, id := range s.teams {
		if id == teamID {
			return nil
		}
	}
	return fmt.Errorf("team %d does not exist", teamID)
}
