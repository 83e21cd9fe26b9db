package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eduscan/internal/config"
	"eduscan/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig(feedURL string) *config.Config {
	return &config.Config{
		Feeds:               []string{feedURL},
		MinScore:            1,
		MaxAgeDays:          7,
		KeywordsMust:        []string{"ai"},
		KeywordsNice:        []string{"school", "student", "tutor"},
		Weights:             config.Weights{TitleKeyword: 2, SummaryKeyword: 1, SourceBonusEdu: 1},
		RequireEduTerm:      true,
		RewriteLinkToFinal:  true,
		FuzzyTitleThreshold: 0.92,
		ArticleTimeoutSecs:  2,
		ArticleMaxChars:     600,
	}
}

// feedServer serves a feed whose items are given as raw <item> XML.
func feedServer(t *testing.T, items ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Test Feed</title>%s</channel></rss>`,
			strings.Join(items, ""))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssItem(title, link, desc string, published time.Time) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description>%s</description><pubDate>%s</pubDate></item>`,
		title, link, desc, published.Format(time.RFC1123Z))
}

func TestRunAcceptsRelevantRecentItems(t *testing.T) {
	now := time.Now()
	srv := feedServer(t,
		rssItem("AI Tutors Arrive", "https://example.com/ai-tutors/", "An AI tool for every school.", now.Add(-24*time.Hour)),
		rssItem("AI Grading Tools Spread", "https://example.com/grading", "An AI tool for every school.", now.Add(-30*24*time.Hour)),
	)

	db := openTestDB(t)
	p, err := New(testConfig(srv.URL), db)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	r, err := p.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.Found != 2 || r.Accepted != 1 || r.Stale != 1 {
		t.Errorf("unexpected counters: %+v", r)
	}

	items, _ := db.AllItems()
	if len(items) != 1 {
		t.Fatalf("expected 1 stored item, got %d", len(items))
	}
	it := items[0]
	if it.URL != "https://example.com/ai-tutors" {
		t.Errorf("expected canonical URL without trailing slash, got %q", it.URL)
	}
	if it.Source != "example.com" {
		t.Errorf("expected domain as source, got %q", it.Source)
	}
	if it.PublishedUTC == "" {
		t.Error("expected published_utc to be set")
	}
	if len(it.ID) != 16 {
		t.Errorf("expected 16-char id, got %q", it.ID)
	}
	if len(it.Tags) == 0 || it.Tags[len(it.Tags)-1] != "src:RSS" {
		t.Errorf("expected src:RSS provenance tag, got %v", it.Tags)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	now := time.Now()
	srv := feedServer(t,
		rssItem("AI Tutors Arrive", "https://example.com/ai-tutors", "An AI tool for every school.", now.Add(-24*time.Hour)),
		rssItem("AI Chatbots in Class", "https://example.com/chatbots", "An AI tool for every school.", now.Add(-48*time.Hour)),
	)

	db := openTestDB(t)
	p, err := New(testConfig(srv.URL), db)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	first, err := p.Run()
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Accepted != 2 {
		t.Fatalf("expected 2 accepted on first run, got %d", first.Accepted)
	}

	second, err := p.Run()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Accepted != 0 {
		t.Errorf("expected 0 accepted on unchanged second run, got %d", second.Accepted)
	}
	if second.Duplicates != 2 {
		t.Errorf("expected 2 duplicates on second run, got %d", second.Duplicates)
	}
}

func TestRunDedupsWithinRun(t *testing.T) {
	now := time.Now()
	srv := feedServer(t,
		rssItem("AI Tutors Help Students Learn Faster", "https://example.com/a", "An AI tool for every school.", now.Add(-time.Hour)),
		rssItem("AI Tutors Help Students Learn Faster!", "https://example.com/b", "An AI tool for every school.", now.Add(-time.Hour)),
		rssItem("AI Tutors Now Help Students Learn Faster", "https://example.com/c", "An AI tool for every school.", now.Add(-time.Hour)),
	)

	db := openTestDB(t)
	p, _ := New(testConfig(srv.URL), db)
	r, err := p.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.Accepted != 1 {
		t.Errorf("expected exact-pair and fuzzy duplicates rejected, accepted %d", r.Accepted)
	}
	if r.Duplicates != 2 {
		t.Errorf("expected 2 duplicates, got %d", r.Duplicates)
	}
}

func TestRunIsolatesFeedErrors(t *testing.T) {
	now := time.Now()
	srv := feedServer(t,
		rssItem("AI Tutors Arrive", "https://example.com/ai-tutors", "An AI tool for every school.", now.Add(-time.Hour)),
	)
	cfg := testConfig(srv.URL)
	cfg.Feeds = append([]string{"http://127.0.0.1:1/dead-feed"}, cfg.Feeds...)

	db := openTestDB(t)
	p, _ := New(cfg, db)
	r, err := p.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.FeedErrors != 1 {
		t.Errorf("expected 1 feed error, got %d", r.FeedErrors)
	}
	if r.Accepted != 1 {
		t.Errorf("bad feed must not abort the run; accepted %d", r.Accepted)
	}
}

func TestRunRejections(t *testing.T) {
	now := time.Now()
	srv := feedServer(t,
		// No must-term: hard gate scores it 0.
		rssItem("Tablets for Every School", "https://example.com/tablets", "New tablets reach every school.", now.Add(-time.Hour)),
		// Excluded domain.
		rssItem("AI Tutors at School", "https://spam.example/pr", "An AI tool for every school.", now.Add(-time.Hour)),
	)
	cfg := testConfig(srv.URL)
	cfg.ExcludeDomains = []string{"spam.example"}

	db := openTestDB(t)
	p, _ := New(cfg, db)
	r, err := p.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.Accepted != 0 {
		t.Errorf("expected 0 accepted, got %d", r.Accepted)
	}
	if r.Excluded != 1 {
		t.Errorf("expected 1 excluded, got %d", r.Excluded)
	}
	if r.LowScore != 1 {
		t.Errorf("expected 1 below-threshold, got %d", r.LowScore)
	}
}

func TestRunPrefersLede(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
<p>Students in three districts started the year with an AI tutor in every classroom, a pilot the schools say will run through spring before any wider rollout decision is made.</p>
<p>Teachers get weekly usage summaries from the vendor dashboard.</p>
</article></body></html>`)
	}))
	defer article.Close()

	now := time.Now()
	srv := feedServer(t,
		rssItem("AI Tutors Arrive", article.URL+"/story", "An AI tool for every school.", now.Add(-time.Hour)),
	)

	cfg := testConfig(srv.URL)
	cfg.FetchArticleText = true
	cfg.PreferLedeOverRSS = true

	db := openTestDB(t)
	p, _ := New(cfg, db)
	r, err := p.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.Accepted != 1 {
		t.Fatalf("expected 1 accepted, got %d", r.Accepted)
	}

	items, _ := db.AllItems()
	it := items[0]
	if !strings.HasPrefix(it.Summary, "Students in three districts") {
		t.Errorf("expected lede as summary, got %q", it.Summary)
	}
	if it.Tags[len(it.Tags)-1] != "src:LEDE" {
		t.Errorf("expected src:LEDE provenance tag, got %v", it.Tags)
	}
}

func TestBuildTags(t *testing.T) {
	tags := buildTags("AI in K-12 and university policy debates", false)
	want := []string{"K-12", "HigherEd", "Policy", "src:RSS"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}

	tags = buildTags("nothing topical here", true)
	if len(tags) != 1 || tags[0] != "src:LEDE" {
		t.Errorf("expected only provenance tag, got %v", tags)
	}
}
