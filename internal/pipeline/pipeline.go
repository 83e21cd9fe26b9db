package pipeline

import (
	"fmt"
	"log"
	"strings"
	"time"

	"eduscan/internal/config"
	"eduscan/internal/dedupe"
	"eduscan/internal/feed"
	"eduscan/internal/lede"
	"eduscan/internal/relevance"
	"eduscan/internal/resolve"
	"eduscan/internal/store"
)

// Result holds the counters of one pipeline run.
type Result struct {
	FeedsPolled int
	FeedErrors  int
	Found       int
	Stale       int
	Excluded    int
	LowScore    int
	Duplicates  int
	Accepted    int
	Sources     map[string]int
}

// Pipeline runs the full ingestion pass: poll feeds, normalize entries,
// filter for recency and relevance, resolve publisher URLs, extract ledes,
// deduplicate, and append accepted rows to the store.
type Pipeline struct {
	cfg       *config.Config
	db        *store.DB
	poller    *feed.Poller
	resolver  *resolve.Resolver
	extractor *lede.Extractor
	scorer    *relevance.Scorer
}

// New builds a pipeline from config. Exclude-pattern compilation happens
// here, so a bad pattern fails the run before any feed is polled.
func New(cfg *config.Config, db *store.DB) (*Pipeline, error) {
	scorer, err := relevance.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building relevance rules: %w", err)
	}
	timeout := time.Duration(cfg.ArticleTimeoutSecs) * time.Second
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		poller:    feed.NewPoller(),
		resolver:  resolve.NewResolver(timeout),
		extractor: lede.NewExtractor(timeout, cfg.ArticleMaxChars),
		scorer:    scorer,
	}, nil
}

// Run executes one full pass. Feeds are polled one at a time and entries
// flow through the whole pipeline sequentially; a parse failure on one feed
// never aborts the run.
func (p *Pipeline) Run() (*Result, error) {
	index, err := p.seedIndex()
	if err != nil {
		return nil, fmt.Errorf("seeding dedupe index: %w", err)
	}

	feeds := feed.BuildFeeds(p.cfg.Feeds, p.cfg.GoogleNewsQuery)
	log.Printf("Polling %d feeds...", len(feeds))

	r := &Result{FeedsPolled: len(feeds), Sources: make(map[string]int)}
	for _, feedURL := range feeds {
		entries, err := p.poller.Poll(feedURL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", feedURL, err)
			r.FeedErrors++
			continue
		}
		r.Found += len(entries)

		for _, entry := range entries {
			if item, ok := p.process(entry, index, r); ok {
				if err := p.db.InsertItem(item); err != nil {
					log.Printf("Failed to store item %s: %v", item.ID, err)
					continue
				}
				r.Accepted++
				r.Sources[item.Source]++
			}
		}
	}

	log.Printf("Run complete: %d found, %d accepted, %d duplicates", r.Found, r.Accepted, r.Duplicates)
	return r, nil
}

// seedIndex loads every stored row into a fresh dedupe index.
func (p *Pipeline) seedIndex() (*dedupe.Index, error) {
	index := dedupe.NewIndex(p.cfg.FuzzyTitleThreshold)
	items, err := p.db.AllItems()
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		index.Seed(it.ID, it.Title, resolve.Domain(it.URL))
	}
	return index, nil
}

// process pushes one entry through the per-item stages. It returns the
// built row and true only when every gate passed and the item was
// registered in the index.
func (p *Pipeline) process(entry feed.Entry, index *dedupe.Index, r *Result) (store.Item, bool) {
	// Recency gate.
	if !feed.IsRecent(entry.PublishedAt, p.cfg.MaxAgeDays, p.cfg.AllowUndated) {
		r.Stale++
		return store.Item{}, false
	}

	// Resolve to the publisher URL and try for a lede.
	resolved := resolve.Resolved{FinalURL: entry.Link}
	ledeText := ""
	if p.cfg.FetchArticleText && entry.Link != "" {
		resolved = p.resolver.Resolve(entry.Link)
		ledeText = p.extractor.Extract(resolved.FinalURL, resolved.AggregatorPage)
	}

	// Canonicalize the URL we store; it is the item's identity.
	linkForStore := entry.Link
	if p.cfg.RewriteLinkToFinal && resolved.FinalURL != "" {
		linkForStore = resolved.FinalURL
	}
	canon := resolve.Canonicalize(linkForStore)
	domain := resolve.Domain(canon)

	source := domain
	if source == "" {
		source = entry.FeedTitle
	}
	if source == "" {
		source = "unknown"
	}

	// Exclude rules and the edu-term gate.
	text := entry.Title + " " + entry.Summary
	if p.scorer.ExcludedDomain(domain) || p.scorer.ExcludedText(text) {
		r.Excluded++
		return store.Item{}, false
	}
	if p.cfg.RequireEduTerm && !p.scorer.HasEduTerm(text) {
		r.Excluded++
		return store.Item{}, false
	}

	// Score against the feed-supplied text; the lede is for display only.
	score := p.scorer.Score(entry.Title, entry.Summary, domain)
	if score < p.cfg.MinScore {
		r.LowScore++
		return store.Item{}, false
	}

	// Dedup ladder; registration happens on accept so later entries in the
	// same run are checked against this one.
	id := dedupe.HashID(entry.Title, canon)
	if index.IsDuplicateAndRegister(id, entry.Title, domain) {
		r.Duplicates++
		return store.Item{}, false
	}

	publishedUTC := ""
	if entry.PublishedAt != nil {
		publishedUTC = entry.PublishedAt.UTC().Format("2006-01-02 15:04:05")
	}

	useLede := ledeText != "" && p.cfg.PreferLedeOverRSS
	summary := entry.Summary
	if useLede {
		summary = ledeText
	}

	return store.Item{
		PublishedUTC: publishedUTC,
		Source:       source,
		Title:        entry.Title,
		URL:          canon,
		Summary:      summary,
		Score:        score,
		Tags:         buildTags(text, useLede),
		ID:           id,
	}, true
}

// buildTags derives coarse topical tags from the title+summary text plus one
// provenance tag recording where the summary came from.
func buildTags(text string, useLede bool) []string {
	low := strings.ToLower(text)

	var tags []string
	if strings.Contains(low, "k-12") || strings.Contains(low, "k12") {
		tags = append(tags, "K-12")
	}
	if strings.Contains(low, "higher") || strings.Contains(low, "university") || strings.Contains(low, "college") {
		tags = append(tags, "HigherEd")
	}
	if strings.Contains(low, "policy") || strings.Contains(low, "regulation") {
		tags = append(tags, "Policy")
	}

	if useLede {
		tags = append(tags, "src:LEDE")
	} else {
		tags = append(tags, "src:RSS")
	}
	return tags
}
