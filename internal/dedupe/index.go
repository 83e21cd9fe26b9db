package dedupe

type pair struct {
	title  string
	domain string
}

// maxTitlesPerDomain caps the fuzzy-match candidate list seeded from the
// store, keeping per-item cost bounded on long-lived deployments.
const maxTitlesPerDomain = 500

// Index tracks every item identity seen across the persisted store and the
// current run. Items are checked before being added; accepted items are
// registered immediately so later items in the same run see them.
type Index struct {
	seenIDs        map[string]struct{}
	seenPairs      map[pair]struct{}
	titlesByDomain map[string][]string
	threshold      float64
}

// NewIndex creates an empty index using threshold for fuzzy title matches.
func NewIndex(threshold float64) *Index {
	if threshold <= 0 {
		threshold = 0.92
	}
	return &Index{
		seenIDs:        make(map[string]struct{}),
		seenPairs:      make(map[pair]struct{}),
		titlesByDomain: make(map[string][]string),
		threshold:      threshold,
	}
}

// Seed registers an already-stored item. title is the raw stored title and
// domain the lower-cased host of its stored URL.
func (x *Index) Seed(id, title, domain string) {
	if id != "" {
		x.seenIDs[id] = struct{}{}
	}
	norm := NormalizeTitle(title)
	if norm == "" || domain == "" {
		return
	}
	x.seenPairs[pair{norm, domain}] = struct{}{}
	titles := append(x.titlesByDomain[domain], norm)
	if len(titles) > maxTitlesPerDomain {
		titles = titles[len(titles)-maxTitlesPerDomain:]
	}
	x.titlesByDomain[domain] = titles
}

// IsDuplicateAndRegister checks an item against the index and, when it is
// new, registers it before returning. The checks form a cost ladder and
// short-circuit: exact id, exact (normalized title, domain) pair, then fuzzy
// title similarity scoped to the same domain.
func (x *Index) IsDuplicateAndRegister(id, title, domain string) bool {
	if _, ok := x.seenIDs[id]; ok {
		return true
	}

	norm := NormalizeTitle(title)
	if domain != "" {
		if _, ok := x.seenPairs[pair{norm, domain}]; ok {
			return true
		}
		for _, existing := range x.titlesByDomain[domain] {
			if Ratio(norm, existing) >= x.threshold {
				return true
			}
		}
	}

	x.seenIDs[id] = struct{}{}
	if norm != "" && domain != "" {
		x.seenPairs[pair{norm, domain}] = struct{}{}
		x.titlesByDomain[domain] = append(x.titlesByDomain[domain], norm)
	}
	return false
}

// Size returns the number of distinct item identities in the index.
func (x *Index) Size() int {
	return len(x.seenIDs)
}
