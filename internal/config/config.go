package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoombar/linkpulse/internal/checker"
)

// Config captures the full configuration for a LinkPulse run.
type Config struct {
	Settings   Settings        `yaml:"settings"`
	Sources    Sources         `yaml:"sources"`
	Signatures SignatureConfig `yaml:"signatures"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// Settings controls concurrency, pacing, and retry behaviour.
type Settings struct {
	ConcurrentRequests   int      `yaml:"concurrent_requests"`
	RequestTimeout       Duration `yaml:"request_timeout"`
	RetryAttempts        int      `yaml:"retry_attempts"`
	DelayBetweenRequests Duration `yaml:"delay_between_requests"`
	MaxRedirects         int      `yaml:"max_redirects"`
	BackoffBase          Duration `yaml:"backoff_base"`
	RatePerWindow        int      `yaml:"rate_per_window"`
	RateWindow           Duration `yaml:"rate_window"`
	YouTubeAPIKey        string   `yaml:"youtube_api_key"`
	MaxVideosPerChannel  int      `yaml:"max_videos_per_channel"`
	MaxPostsPerDomain    int      `yaml:"max_posts_per_domain"`
	CrawlDepth           int      `yaml:"crawl_depth"`
}

// Sources lists the content to pull candidate affiliate links from.
type Sources struct {
	YouTubeVideos   []SourceEntry `yaml:"youtube_videos"`
	BlogPosts       []SourceEntry `yaml:"blog_posts"`
	YouTubeChannels []SourceEntry `yaml:"youtube_channels"`
	WebsiteDomains  []SourceEntry `yaml:"website_domains"`
}

// SourceEntry names one video, post, channel, or domain.
type SourceEntry struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

// SignatureConfig overrides the built-in platform detection heuristics.
// Empty lists keep the defaults.
type SignatureConfig struct {
	AmazonTitleSelectors []string `yaml:"amazon_title_selectors"`
	AmazonPriceSelectors []string `yaml:"amazon_price_selectors"`
	AmazonNoProduct      []string `yaml:"amazon_no_product"`
	AmazonOutOfStock     []string `yaml:"amazon_out_of_stock"`
	AliNotFound          []string `yaml:"aliexpress_not_found"`
	AliSellerInactive    []string `yaml:"aliexpress_seller_inactive"`
	AliPriceSelectors    []string `yaml:"aliexpress_price_selectors"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Settings: Settings{
			ConcurrentRequests:   3,
			RequestTimeout:       DurationFrom(30 * time.Second),
			RetryAttempts:        3,
			DelayBetweenRequests: DurationFrom(1500 * time.Millisecond),
			MaxRedirects:         10,
			BackoffBase:          DurationFrom(500 * time.Millisecond),
			MaxVideosPerChannel:  50,
			MaxPostsPerDomain:    100,
			CrawlDepth:           2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for a run.
func (c Config) Validate() error {
	if !c.Sources.anyConfigured() {
		return errors.New("config must list at least one source (youtube_videos, blog_posts, youtube_channels, or website_domains)")
	}
	if c.Settings.ConcurrentRequests <= 0 {
		return fmt.Errorf("settings.concurrent_requests must be > 0 (got %d)", c.Settings.ConcurrentRequests)
	}
	if c.Settings.ConcurrentRequests > 20 {
		return fmt.Errorf("settings.concurrent_requests must be <= 20 (got %d)", c.Settings.ConcurrentRequests)
	}
	if c.Settings.RetryAttempts < 0 {
		return fmt.Errorf("settings.retry_attempts must be >= 0 (got %d)", c.Settings.RetryAttempts)
	}
	if c.Settings.RequestTimeout.Duration <= 0 {
		return errors.New("settings.request_timeout must be positive")
	}
	if c.Settings.DelayBetweenRequests.Duration < 0 {
		return errors.New("settings.delay_between_requests must not be negative")
	}
	if c.Settings.MaxRedirects <= 0 {
		return fmt.Errorf("settings.max_redirects must be > 0 (got %d)", c.Settings.MaxRedirects)
	}
	if c.Settings.CrawlDepth < 1 {
		return fmt.Errorf("settings.crawl_depth must be >= 1 (got %d)", c.Settings.CrawlDepth)
	}
	for _, group := range []struct {
		name    string
		entries []SourceEntry
	}{
		{"youtube_videos", c.Sources.YouTubeVideos},
		{"blog_posts", c.Sources.BlogPosts},
		{"youtube_channels", c.Sources.YouTubeChannels},
		{"website_domains", c.Sources.WebsiteDomains},
	} {
		for i, entry := range group.entries {
			if entry.URL == "" {
				return fmt.Errorf("sources.%s[%d] has empty url", group.name, i)
			}
		}
	}
	return nil
}

func (c *Config) normalise() {
	trim := func(entries []SourceEntry) {
		for i := range entries {
			entries[i].URL = strings.TrimSpace(entries[i].URL)
			entries[i].Title = strings.TrimSpace(entries[i].Title)
		}
	}
	trim(c.Sources.YouTubeVideos)
	trim(c.Sources.BlogPosts)
	trim(c.Sources.YouTubeChannels)
	trim(c.Sources.WebsiteDomains)

	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.Settings.YouTubeAPIKey = key
	}
	c.Settings.YouTubeAPIKey = strings.TrimSpace(c.Settings.YouTubeAPIKey)
}

func (s Sources) anyConfigured() bool {
	return len(s.YouTubeVideos) > 0 || len(s.BlogPosts) > 0 ||
		len(s.YouTubeChannels) > 0 || len(s.WebsiteDomains) > 0
}

// Checker maps the settings onto the validation engine's configuration.
func (c Config) Checker() checker.Config {
	return checker.Config{
		ConcurrentRequests: c.Settings.ConcurrentRequests,
		RequestTimeout:     c.Settings.RequestTimeout.Duration,
		RetryAttempts:      c.Settings.RetryAttempts,
		DelayBetween:       c.Settings.DelayBetweenRequests.Duration,
		MaxRedirects:       c.Settings.MaxRedirects,
		BackoffBase:        c.Settings.BackoffBase.Duration,
		RatePerWindow:      c.Settings.RatePerWindow,
		RateWindow:         c.Settings.RateWindow.Duration,
		Signatures:         c.Signatures.Checker(),
	}
}

// Checker maps signature overrides onto the classifier's heuristics.
func (s SignatureConfig) Checker() checker.Signatures {
	return checker.Signatures{
		AmazonTitleSelectors: s.AmazonTitleSelectors,
		AmazonPriceSelectors: s.AmazonPriceSelectors,
		AmazonNoProduct:      s.AmazonNoProduct,
		AmazonOutOfStock:     s.AmazonOutOfStock,
		AliNotFound:          s.AliNotFound,
		AliSellerInactive:    s.AliSellerInactive,
		AliPriceSelectors:    s.AliPriceSelectors,
	}
}
