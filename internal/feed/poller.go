package feed

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// Entry is a normalized feed entry: whitespace-collapsed title and summary,
// and a published time that stays nil when no date field could be parsed.
type Entry struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
	FeedTitle   string
}

// Poller parses RSS/Atom feeds into normalized entries.
type Poller struct {
	parser *gofeed.Parser
}

// NewPoller creates a new Poller.
func NewPoller() *Poller {
	return &Poller{parser: gofeed.NewParser()}
}

// Poll fetches and parses a single feed. Entries with no usable link or
// title are skipped.
func (p *Poller) Poll(feedURL string) ([]Entry, error) {
	parsed, err := p.parser.ParseURL(feedURL)
	if err != nil {
		return nil, err
	}

	feedTitle := NormalizeText(parsed.Title)
	var entries []Entry
	for _, item := range parsed.Items {
		e := normalizeItem(item, feedTitle)
		if e == nil {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func normalizeItem(item *gofeed.Item, feedTitle string) *Entry {
	link := item.Link
	if link == "" {
		for _, l := range item.Links {
			if l != "" {
				link = l
				break
			}
		}
	}
	if link == "" {
		link = item.GUID
	}
	if link == "" {
		return nil
	}

	title := NormalizeText(item.Title)
	if title == "" {
		return nil
	}

	summary := NormalizeText(item.Description)
	if summary == "" {
		summary = NormalizeText(item.Content)
	}

	return &Entry{
		Title:       title,
		Link:        link,
		Summary:     summary,
		PublishedAt: parsePublished(item),
		FeedTitle:   feedTitle,
	}
}

// parsePublished returns the entry's published time, or nil when no date
// field is recognizable. Undated entries are never back-filled with "now".
func parsePublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return &t
		}
	}
	return nil
}

// NormalizeText collapses all whitespace runs to single spaces and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsRecent reports whether a publish time falls within maxAgeDays of now
// (inclusive). A nil time yields exactly allowUndated.
func IsRecent(publishedAt *time.Time, maxAgeDays int, allowUndated bool) bool {
	if publishedAt == nil {
		return allowUndated
	}
	age := time.Now().UTC().Sub(publishedAt.UTC())
	return age <= time.Duration(maxAgeDays)*24*time.Hour
}
