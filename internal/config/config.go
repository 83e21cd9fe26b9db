package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feeds           []string `yaml:"feeds"`
	GoogleNewsQuery string   `yaml:"google_news_query"`

	MinScore       int  `yaml:"min_score"`
	MaxAgeDays     int  `yaml:"max_age_days"`
	AllowUndated   bool `yaml:"allow_undated"`
	RequireEduTerm bool `yaml:"require_edu_term"`

	ExcludeDomains  []string `yaml:"exclude_domains"`
	ExcludePatterns []string `yaml:"exclude_patterns"`

	KeywordsMust  []string `yaml:"keywords_must"`
	KeywordsNice  []string `yaml:"keywords_nice"`
	EduishDomains []string `yaml:"eduish_domains"`
	Weights       Weights  `yaml:"weights"`

	FetchArticleText    bool    `yaml:"fetch_article_text"`
	PreferLedeOverRSS   bool    `yaml:"prefer_lede_over_rss"`
	ArticleTimeoutSecs  int     `yaml:"article_timeout_secs"`
	ArticleMaxChars     int     `yaml:"article_max_chars"`
	RewriteLinkToFinal  bool    `yaml:"rewrite_link_to_final"`
	FuzzyTitleThreshold float64 `yaml:"fuzzy_title_threshold"`

	Output Output `yaml:"output"`
	Server Server `yaml:"server"`
}

type Weights struct {
	TitleKeyword   int `yaml:"title_keyword"`
	SummaryKeyword int `yaml:"summary_keyword"`
	SourceBonusEdu int `yaml:"source_bonus_edu"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for eduscan.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "eduscan")
}

// DataDir returns the XDG data directory for eduscan.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "eduscan")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/eduscan/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'eduscan init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		MinScore:       2,
		MaxAgeDays:     7,
		RequireEduTerm: true,
		Weights: Weights{
			TitleKeyword:   2,
			SummaryKeyword: 1,
			SourceBonusEdu: 1,
		},
		FetchArticleText:    true,
		PreferLedeOverRSS:   true,
		ArticleTimeoutSecs:  6,
		ArticleMaxChars:     600,
		RewriteLinkToFinal:  true,
		FuzzyTitleThreshold: 0.92,
		Server:              Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
