// Package parser turns roster site markup into typed extraction records.
//
// Listing pages yield roster.ListingEntry candidates; player detail pages yield roster.UniformEntry
// candidates. Both parsers return single-pass iter.Seq values over an already parsed document, and
// report rejected links through an optional Observer so callers can log what was skipped and why.
package parser

import "errors"

// Rejection reasons for listing links.
var (
	ErrNoHref         = errors.New("link has no href")
	ErrOutsidePlayers = errors.New("link is outside the players section")
	ErrNotProfile     = errors.New("link is not a profile document")
)

// Rejection describes a link the parser declined to emit.
type Rejection struct {
	Text   string
	Href   string
	Reason error
}

// Observer receives rejections as the sequence is consumed.
type Observer func(Rejection)

func (o Observer) notify(r Rejection) {
	if o != nil {
		o(r)
	}
}

// ReasonLabel maps a rejection reason to a short, stable label for logs and metrics.
func ReasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrNoHref):
		return "no_href"
	case errors.Is(err, ErrOutsidePlayers):
		return "outside_players"
	case errors.Is(err, ErrNotProfile):
		return "not_profile"
	case errors.Is(err, ErrMissingNumber):
		return "missing_number"
	case errors.Is(err, ErrInvalidNumber):
		return "invalid_number"
	case errors.Is(err, ErrMissingSeparator):
		return "missing_separator"
	default:
		return "other"
	}
}
