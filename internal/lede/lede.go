package lede

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const userAgent = "eduscan/1.0 (news watcher)"

// Extractor fetches article pages and pulls out the first paragraph of body
// text as a short lede.
type Extractor struct {
	client   *http.Client
	maxChars int
}

// NewExtractor creates an extractor; fetches are bounded by timeout and the
// returned lede is truncated to maxChars.
func NewExtractor(timeout time.Duration, maxChars int) *Extractor {
	if timeout == 0 {
		timeout = 6 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 600
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		maxChars: maxChars,
	}
}

// Extract returns the first non-empty line of readable body text at pageURL,
// truncated to the configured budget. Aggregator pages carry no article body,
// so they are skipped outright. Every failure yields "": this stage never
// drops an item, the caller falls back to the feed summary.
func (e *Extractor) Extract(pageURL string, aggregatorPage bool) string {
	if aggregatorPage || pageURL == "" {
		return ""
	}

	text := e.fetchAndExtract(pageURL)
	if text == "" {
		// One independent retry; transient fetch or parse hiccups are common.
		text = e.fetchAndExtract(pageURL)
	}
	if text == "" {
		return ""
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return e.truncate(line)
	}
	return ""
}

func (e *Extractor) fetchAndExtract(pageURL string) string {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("lede: fetch failed for %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func (e *Extractor) truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= e.maxChars {
		return s
	}
	return strings.TrimRight(string(runes[:e.maxChars]), " ") + "…"
}
