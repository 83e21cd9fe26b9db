package feed

import (
	"fmt"
	"net/url"
	"strings"
)

// GoogleNewsSearchURL builds a Google News search feed URL for a query, or
// "" when the query is empty.
func GoogleNewsSearchURL(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	return fmt.Sprintf(
		"https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(query),
	)
}

// BuildFeeds returns the deduplicated, order-preserving list of feed URLs to
// poll: the explicit list plus the synthesized search feed, if any.
func BuildFeeds(feeds []string, googleNewsQuery string) []string {
	all := make([]string, 0, len(feeds)+1)
	all = append(all, feeds...)
	if u := GoogleNewsSearchURL(googleNewsQuery); u != "" {
		all = append(all, u)
	}

	seen := make(map[string]struct{}, len(all))
	uniq := make([]string, 0, len(all))
	for _, f := range all {
		u := strings.TrimSpace(f)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		uniq = append(uniq, u)
	}
	return uniq
}
