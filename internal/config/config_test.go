package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	if cfg.GoogleNewsQuery == "" {
		t.Error("expected google_news_query to be set")
	}
	if cfg.MinScore != 2 {
		t.Errorf("expected min_score 2, got %d", cfg.MinScore)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected max_age_days 7, got %d", cfg.MaxAgeDays)
	}
	if cfg.FuzzyTitleThreshold != 0.92 {
		t.Errorf("expected fuzzy_title_threshold 0.92, got %v", cfg.FuzzyTitleThreshold)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
feeds:
  - https://example.com/feed.xml
min_score: 3
allow_undated: true
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.MinScore != 3 {
		t.Errorf("expected min_score 3, got %d", cfg.MinScore)
	}
	if !cfg.AllowUndated {
		t.Error("expected allow_undated true")
	}
	// Defaults should still be set for unspecified fields
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected default max_age_days 7, got %d", cfg.MaxAgeDays)
	}
	if cfg.Weights.TitleKeyword != 2 {
		t.Errorf("expected default title_keyword weight 2, got %d", cfg.Weights.TitleKeyword)
	}
	if cfg.ArticleTimeoutSecs != 6 {
		t.Errorf("expected default article_timeout_secs 6, got %d", cfg.ArticleTimeoutSecs)
	}
	if !cfg.PreferLedeOverRSS {
		t.Error("expected prefer_lede_over_rss to default true")
	}
}

func TestDisableDefaults(t *testing.T) {
	data := []byte(`
require_edu_term: false
fetch_article_text: false
rewrite_link_to_final: false
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	if cfg.RequireEduTerm {
		t.Error("expected require_edu_term false")
	}
	if cfg.FetchArticleText {
		t.Error("expected fetch_article_text false")
	}
	if cfg.RewriteLinkToFinal {
		t.Error("expected rewrite_link_to_final false")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
