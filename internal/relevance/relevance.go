package relevance

import (
	"fmt"
	"regexp"
	"strings"

	"eduscan/internal/config"
)

// Scorer gates items on required keywords and scores them from bonus keyword
// hits and a source-domain bonus. All keyword matching is case-insensitive
// and whole-word, so "ai" does not hit "chair".
type Scorer struct {
	must    []*regexp.Regexp
	nice    []*regexp.Regexp
	exclude []*regexp.Regexp

	excludeDomains []string
	eduishDomains  []string

	weightTitle   int
	weightSummary int
	weightSource  int
}

// New compiles the keyword and exclude-pattern rules from cfg. Invalid
// exclude_patterns regexes fail here, at startup, not mid-run.
func New(cfg *config.Config) (*Scorer, error) {
	s := &Scorer{
		must:          compileTerms(cfg.KeywordsMust),
		nice:          compileTerms(cfg.KeywordsNice),
		weightTitle:   cfg.Weights.TitleKeyword,
		weightSummary: cfg.Weights.SummaryKeyword,
		weightSource:  cfg.Weights.SourceBonusEdu,
	}
	for _, d := range cfg.ExcludeDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			s.excludeDomains = append(s.excludeDomains, d)
		}
	}
	for _, d := range cfg.EduishDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			s.eduishDomains = append(s.eduishDomains, d)
		}
	}
	for _, p := range cfg.ExcludePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", p, err)
		}
		s.exclude = append(s.exclude, re)
	}
	return s, nil
}

// compileTerms builds case-insensitive whole-word matchers for keywords.
func compileTerms(terms []string) []*regexp.Regexp {
	var res []*regexp.Regexp
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return res
}

// Score computes the relevance score for an item. When must-terms are
// configured and none appears in the title or summary, it returns 0 without
// scoring. Otherwise each distinct nice-term hit in the title and summary
// contributes its weight, and an eduish source domain adds a bonus.
func (s *Scorer) Score(title, summary, domain string) int {
	if len(s.must) > 0 && !anyMatch(s.must, title) && !anyMatch(s.must, summary) {
		return 0
	}

	score := 0
	for _, re := range s.nice {
		if re.MatchString(title) {
			score += s.weightTitle
		}
		if re.MatchString(summary) {
			score += s.weightSummary
		}
	}

	if domain != "" {
		for _, d := range s.eduishDomains {
			if strings.Contains(domain, d) {
				score += s.weightSource
				break
			}
		}
	}
	return score
}

// ExcludedDomain reports whether domain is on the exclude list.
func (s *Scorer) ExcludedDomain(domain string) bool {
	if domain == "" {
		return false
	}
	domain = strings.ToLower(domain)
	for _, d := range s.excludeDomains {
		if strings.Contains(domain, d) {
			return true
		}
	}
	return false
}

// ExcludedText reports whether text matches any exclude pattern.
func (s *Scorer) ExcludedText(text string) bool {
	for _, re := range s.exclude {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasEduTerm reports whether text contains any of the nice-term vocabulary,
// used as the require_edu_term gate.
func (s *Scorer) HasEduTerm(text string) bool {
	return anyMatch(s.nice, text)
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
