package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"eduscan/internal/config"
	"eduscan/internal/pipeline"
)

// Compose renders a markdown report for one completed run: what ran, which
// rules applied, and what was appended. The report is stored with the run
// and shown by the web viewer.
func Compose(cfg *config.Config, r *pipeline.Result, ranAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AI in Education News — Run Report\n\n")
	fmt.Fprintf(&b, "Last run (UTC): %s\n\n", ranAt.UTC().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## What this does\n\n")
	fmt.Fprintf(&b, "- Pulls recent AI + education headlines from RSS (incl. a Google News search feed)\n")
	fmt.Fprintf(&b, "- Filters by recency (<= %d days) and relevance (min score %d)\n", cfg.MaxAgeDays, cfg.MinScore)
	fmt.Fprintf(&b, "- De-duplicates by id, title+domain, and fuzzy title similarity\n")
	fmt.Fprintf(&b, "- Appends rows to the local store\n\n")

	fmt.Fprintf(&b, "## Result\n\n")
	fmt.Fprintf(&b, "Polled %d feeds (%d failed): %d entries found, %d appended.\n\n",
		r.FeedsPolled, r.FeedErrors, r.Found, r.Accepted)
	fmt.Fprintf(&b, "Rejected: %d stale, %d excluded, %d below threshold, %d duplicates.\n\n",
		r.Stale, r.Excluded, r.LowScore, r.Duplicates)

	if len(r.Sources) > 0 {
		fmt.Fprintf(&b, "## New rows by source\n\n")
		for _, s := range sortedSources(r.Sources) {
			fmt.Fprintf(&b, "- %s: %d\n", s.name, s.count)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Relevance rules\n\n")
	fmt.Fprintf(&b, "Must include one of: %s\n\n", orDash(cfg.KeywordsMust))
	fmt.Fprintf(&b, "Education hints: %s\n\n", orDash(cfg.KeywordsNice))
	fmt.Fprintf(&b, "Source bonus domains: %s\n\n", orDash(cfg.EduishDomains))

	fmt.Fprintf(&b, "## Recency and filters\n\n")
	fmt.Fprintf(&b, "- max_age_days: %d\n", cfg.MaxAgeDays)
	fmt.Fprintf(&b, "- allow_undated: %t\n", cfg.AllowUndated)
	fmt.Fprintf(&b, "- require_edu_term: %t\n", cfg.RequireEduTerm)
	fmt.Fprintf(&b, "- exclude_domains: %s\n", orDash(cfg.ExcludeDomains))
	fmt.Fprintf(&b, "- exclude_patterns: %s\n\n", orDash(cfg.ExcludePatterns))

	fmt.Fprintf(&b, "## Lede extraction\n\n")
	fmt.Fprintf(&b, "- fetch_article_text: %t\n", cfg.FetchArticleText)
	fmt.Fprintf(&b, "- prefer_lede_over_rss: %t\n", cfg.PreferLedeOverRSS)
	fmt.Fprintf(&b, "- article_timeout_secs: %d\n", cfg.ArticleTimeoutSecs)
	fmt.Fprintf(&b, "- article_max_chars: %d\n", cfg.ArticleMaxChars)

	return b.String()
}

type sourceCount struct {
	name  string
	count int
}

// sortedSources orders sources by count descending, then name, so reports
// are stable run to run.
func sortedSources(sources map[string]int) []sourceCount {
	out := make([]sourceCount, 0, len(sources))
	for name, count := range sources {
		out = append(out, sourceCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, ", ")
}
