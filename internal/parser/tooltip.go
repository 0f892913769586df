package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// Failure modes of the uniform entry grammar.
var (
	ErrMissingNumber    = errors.New("href has no number parameter")
	ErrInvalidNumber    = errors.New("number parameter is not a jersey number")
	ErrMissingSeparator = errors.New("tooltip has no separator between years and team")
)

const numberParam = "number"

// ParseJerseyNumber extracts the jersey number carried in the "number" query parameter of href.
func ParseJerseyNumber(href string) (int, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMissingNumber, err)
	}
	raw := strings.TrimSpace(u.Query().Get(numberParam))
	if raw == "" {
		return 0, ErrMissingNumber
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return n, nil
}

// ParseTooltipTeam extracts the team name from a tooltip shaped "<year-or-range> <team name>".
// Everything after the first whitespace run is the team, so a team name that itself starts with a
// numeric token keeps that token.
func ParseTooltipTeam(tip string) (string, error) {
	tip = strings.TrimSpace(tip)
	idx := strings.IndexFunc(tip, unicode.IsSpace)
	if idx < 0 {
		return "", ErrMissingSeparator
	}
	return strings.TrimSpace(tip[idx:]), nil
}
