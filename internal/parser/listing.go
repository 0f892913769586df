package parser

import (
	"bytes"
	"fmt"
	"iter"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

const (
	// DefaultPlayersPrefix is the path every profile URL lives under.
	DefaultPlayersPrefix = "/players/"
	hallOfFameMarker     = "+"
)

// DefaultProfilePattern matches profile documents such as "aaronha01.shtml": an identifier ending in a
// two-digit disambiguator. Index pages like "playerindex.shtml" share the suffix but not the digits.
var DefaultProfilePattern = regexp.MustCompile(`^[a-z][a-z0-9'.-]*[0-9]{2}\.shtml$`)

// ListingParser extracts player candidates from listing pages.
type ListingParser struct {
	base     *url.URL
	prefix   string
	profile  *regexp.Regexp
	observer Observer
}

// ListingOption customizes a ListingParser.
type ListingOption func(*ListingParser)

// WithPlayersPrefix overrides the required path prefix.
func WithPlayersPrefix(prefix string) ListingOption {
	return func(p *ListingParser) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithProfilePattern overrides the profile document pattern, matched against the last path segment.
func WithProfilePattern(re *regexp.Regexp) ListingOption {
	return func(p *ListingParser) {
		if re != nil {
			p.profile = re
		}
	}
}

// WithListingObserver registers a callback for rejected links.
func WithListingObserver(o Observer) ListingOption {
	return func(p *ListingParser) {
		p.observer = o
	}
}

// NewListingParser builds a parser resolving relative links against baseURL's origin.
func NewListingParser(baseURL string, opts ...ListingOption) (*ListingParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	p := &ListingParser{
		base:    &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		prefix:  DefaultPlayersPrefix,
		profile: DefaultProfilePattern,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse returns the candidates on a listing page. The sequence walks the parsed document once; ranging
// over it a second time yields nothing.
func (p *ListingParser) Parse(body []byte) (iter.Seq[roster.ListingEntry], error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}
	consumed := false
	return func(yield func(roster.ListingEntry) bool) {
		if consumed {
			return
		}
		consumed = true
		doc.Find("p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
			link := para.Find("a").First()
			if link.Length() == 0 {
				return true
			}
			entry, ok := p.candidate(link)
			if !ok {
				return true
			}
			return yield(entry)
		})
	}, nil
}

func (p *ListingParser) candidate(link *goquery.Selection) (roster.ListingEntry, bool) {
	text := link.Text()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		p.observer.notify(Rejection{Text: text, Reason: ErrNoHref})
		return roster.ListingEntry{}, false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		p.observer.notify(Rejection{Text: text, Href: href, Reason: ErrOutsidePlayers})
		return roster.ListingEntry{}, false
	}
	resolved := p.base.ResolveReference(ref)
	if resolved.Host != p.base.Host || !strings.HasPrefix(resolved.Path, p.prefix) {
		p.observer.notify(Rejection{Text: text, Href: resolved.String(), Reason: ErrOutsidePlayers})
		return roster.ListingEntry{}, false
	}
	if resolved.RawQuery != "" || resolved.ForceQuery || resolved.Fragment != "" ||
		!p.profile.MatchString(path.Base(resolved.Path)) {
		p.observer.notify(Rejection{Text: text, Href: resolved.String(), Reason: ErrNotProfile})
		return roster.ListingEntry{}, false
	}
	return roster.ListingEntry{Name: CleanName(text), URL: resolved.String()}, true
}

// CleanName trims whitespace and the trailing hall-of-fame marker from a listing name.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimRight(name, hallOfFameMarker)
	return strings.TrimSpace(name)
}
