package parser

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

const (
	uniformContainerSelector = "div.uni_holder.br"
	uniformEntrySelector     = "a.poptip"
	tooltipAttr              = "data-tip"
)

// DetailParser extracts team/jersey history from player detail pages.
type DetailParser struct {
	observer Observer
}

// NewDetailParser builds a DetailParser. A nil observer discards rejections.
func NewDetailParser(observer Observer) *DetailParser {
	return &DetailParser{observer: observer}
}

// Parse returns the uniform entries on a detail page. found is false when the page carries no uniform
// history container; the sequence is then empty. Entries are not deduplicated.
func (p *DetailParser) Parse(body []byte) (seq iter.Seq[roster.UniformEntry], found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("parse detail markup: %w", err)
	}
	holder := doc.Find(uniformContainerSelector).First()
	if holder.Length() == 0 {
		return func(func(roster.UniformEntry) bool) {}, false, nil
	}
	consumed := false
	return func(yield func(roster.UniformEntry) bool) {
		if consumed {
			return
		}
		consumed = true
		holder.Find(uniformEntrySelector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
			entry, ok := p.entry(link)
			if !ok {
				return true
			}
			return yield(entry)
		})
	}, true, nil
}

func (p *DetailParser) entry(link *goquery.Selection) (roster.UniformEntry, bool) {
	href := link.AttrOr("href", "")
	tip := link.AttrOr(tooltipAttr, "")
	number, err := ParseJerseyNumber(href)
	if err != nil {
		p.observer.notify(Rejection{Text: tip, Href: href, Reason: err})
		return roster.UniformEntry{}, false
	}
	team, err := ParseTooltipTeam(tip)
	if err != nil {
		p.observer.notify(Rejection{Text: tip, Href: href, Reason: err})
		return roster.UniformEntry{}, false
	}
	return roster.UniformEntry{Team: team, Number: number}, true
}
