package crawler

import (
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Stats summarizes a crawl run.
type Stats struct {
	RunID      string
	Mode       roster.Mode
	StartedAt  time.Time
	FinishedAt time.Time

	Units             int
	Fetches           int
	FetchFailures     int
	ParseMisses       int
	Candidates        int
	CandidateFailures int
	Inserted          int
	Skipped           int
	Conflicts         int
	Archived          int
	Paused            time.Duration
}

// Duration is the wall time of the run.
func (s Stats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Stats) unit(mode roster.Mode, result string) {
	s.Units++
	metrics.ObserveWorkUnit(string(mode), result)
}

func (s *Stats) row(outcome roster.Outcome) {
	switch outcome {
	case roster.OutcomeInserted:
		s.Inserted++
	case roster.OutcomeSkipped:
		s.Skipped++
	case roster.OutcomeConflict:
		s.Conflicts++
	}
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("units", s.Units),
		zap.Int("fetches", s.Fetches),
		zap.Int("fetch_failures", s.FetchFailures),
		zap.Int("parse_misses", s.ParseMisses),
		zap.Int("candidates", s.Candidates),
		zap.Int("candidate_failures", s.CandidateFailures),
		zap.Int("inserted", s.Inserted),
		zap.Int("skipped", s.Skipped),
		zap.Int("conflicts", s.Conflicts),
		zap.Int("archived", s.Archived),
		zap.Duration("paused", s.Paused),
		zap.Duration("elapsed", s.Duration()),
	}
}
