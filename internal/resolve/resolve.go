package resolve

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "eduscan/1.0 (news watcher)"

// redirectParams are query parameters aggregator wrapper URLs use to carry
// the real publisher URL.
var redirectParams = []string{"url", "q", "u", "dest"}

// Resolved is the outcome of resolving a raw feed-entry link.
type Resolved struct {
	FinalURL string
	// AggregatorPage means the URL still points at an aggregator page with
	// no usable article body; lede extraction must be skipped.
	AggregatorPage bool
}

// Resolver follows redirects and unwraps aggregator wrapper pages to find
// the real publisher URL behind a feed-entry link.
type Resolver struct {
	client *http.Client
}

// NewResolver creates a resolver whose fetches are bounded by timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout == 0 {
		timeout = 6 * time.Second
	}
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Resolve fetches rawURL following redirects and, if it lands on an
// aggregator page, tries a ladder of unwrap heuristics: redirect query
// parameter, AMP viewer path, canonical link tag, first external anchor.
// It never fails: any error degrades to the raw URL unchanged.
func (r *Resolver) Resolve(rawURL string) Resolved {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return Resolved{FinalURL: rawURL, AggregatorPage: IsAggregatorHost(Domain(rawURL))}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("resolve: fetch failed for %s: %v", rawURL, err)
		return Resolved{FinalURL: rawURL, AggregatorPage: IsAggregatorHost(Domain(rawURL))}
	}
	defer resp.Body.Close()

	landed := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		landed = resp.Request.URL.String()
	}

	if !IsAggregatorHost(Domain(landed)) {
		return Resolved{FinalURL: landed}
	}

	// Heuristic 1: redirect-style query parameter.
	if dest := unwrapQueryParam(landed); dest != "" {
		return Resolved{FinalURL: dest}
	}

	// Heuristic 2: AMP viewer path.
	if dest := unwrapAMPPath(landed); dest != "" {
		return Resolved{FinalURL: dest}
	}

	var body []byte
	if resp.StatusCode == http.StatusOK {
		body, _ = io.ReadAll(resp.Body)
	}
	if len(body) > 0 {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			// Heuristic 3: canonical link tag.
			if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
				if dest := absoluteNonAggregator(href); dest != "" {
					return Resolved{FinalURL: dest}
				}
			}

			// Heuristic 4: first absolute anchor pointing off-aggregator.
			var dest string
			doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				href, _ := s.Attr("href")
				if d := absoluteNonAggregator(href); d != "" {
					dest = d
					return false
				}
				return true
			})
			if dest != "" {
				return Resolved{FinalURL: dest}
			}
		}
	}

	// No unwrap signal: keep the landed URL, flagged as an aggregator page.
	return Resolved{FinalURL: landed, AggregatorPage: true}
}

// unwrapQueryParam returns the publisher URL carried in a redirect-style
// query parameter, or "" if none is present.
func unwrapQueryParam(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, name := range redirectParams {
		v := q.Get(name)
		if v == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
		if isAbsoluteHTTP(v) {
			return v
		}
	}
	return ""
}

// unwrapAMPPath rewrites an AMP viewer path like /amp/s/host/article to
// https://host/article, or returns "" if the path is not an AMP path.
func unwrapAMPPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(path, "amp/") {
		return ""
	}
	rest := strings.TrimPrefix(path, "amp/")
	rest = strings.TrimPrefix(rest, "s/")
	if rest == "" {
		return ""
	}
	return "https://" + rest
}

func absoluteNonAggregator(href string) string {
	if !isAbsoluteHTTP(href) {
		return ""
	}
	host := Domain(href)
	if host == "" || IsAggregatorHost(host) {
		return ""
	}
	return href
}

func isAbsoluteHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsAggregatorHost reports whether host belongs to a news aggregator or one
// of its redirect domains.
func IsAggregatorHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	if strings.Contains(host, "news.google.") {
		return true
	}
	if host == "google.com" || strings.HasSuffix(host, ".google.com") {
		return true
	}
	return host == "goo.gl"
}

// Canonicalize maps a URL to its canonical form: lower-cased host, trailing
// slash stripped (bare "/" for an empty path), query, fragment and userinfo
// dropped. The canonical form is the identity used for dedup and storage.
// Canonicalize is idempotent; unparseable input is returned unchanged.
func Canonicalize(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		path = "/"
	}
	clean := url.URL{
		Scheme: u.Scheme,
		Host:   strings.ToLower(u.Host),
		Path:   path,
	}
	return clean.String()
}

// Domain returns the lower-cased host of a URL, or "" if it cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
