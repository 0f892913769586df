package roster

import (
	"net/http"
	"time"
)

// DefaultSport is the sport classification recorded for players discovered by the listing crawl.
const DefaultSport = "Baseball"

// Player is a persisted athlete row. URL is the natural key since names collide.
type Player struct {
	ID    int64
	Name  string
	Sport string
	URL   string
}

// Team is a persisted team row keyed by its unique name.
type Team struct {
	ID   int64
	Name string
}

// ListingEntry is a candidate player extracted from a listing page.
type ListingEntry struct {
	Name string
	URL  string
}

// UniformEntry is a candidate team/jersey association extracted from a player's detail page.
type UniformEntry struct {
	Team   string
	Number int
}

// Page is the raw markup returned by a successful fetch.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Outcome reports what reconciliation did with a single fact.
type Outcome string

// Reconciliation outcomes.
const (
	OutcomeInserted Outcome = "inserted"
	OutcomeSkipped  Outcome = "skipped"
	// OutcomeConflict means the store rejected a duplicate that passed the existence check.
	OutcomeConflict Outcome = "conflict"
)

// UniformOutcome captures the independent decisions made for one team/jersey candidate.
type UniformOutcome struct {
	TeamID int64
	Team   Outcome
	Link   Outcome
	Number Outcome
}

// Mode names a crawl flavor.
type Mode string

// Crawl modes.
const (
	ModeListing Mode = "listing"
	ModeDetail  Mode = "detail"
)
