package config

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
sources:
  youtube_videos:
    - url: https://www.youtube.com/watch?v=dQw4w9WgXcQ
      title: Gadget review
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.ConcurrentRequests != 3 {
		t.Fatalf("expected default 3 workers, got %d", cfg.Settings.ConcurrentRequests)
	}
	if cfg.Settings.RequestTimeout.Duration != 30*time.Second {
		t.Fatalf("expected default 30s timeout, got %v", cfg.Settings.RequestTimeout.Duration)
	}
	if cfg.Settings.RetryAttempts != 3 {
		t.Fatalf("expected default 3 retries, got %d", cfg.Settings.RetryAttempts)
	}
	if cfg.Settings.DelayBetweenRequests.Duration != 1500*time.Millisecond {
		t.Fatalf("expected default 1.5s delay, got %v", cfg.Settings.DelayBetweenRequests.Duration)
	}
}

func TestLoadParsesDurationForms(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
settings:
  request_timeout: 45s
  delay_between_requests: 2.5
  backoff_base: 250ms
sources:
  blog_posts:
    - url: https://example.com/gadget-roundup
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.RequestTimeout.Duration != 45*time.Second {
		t.Fatalf("string duration: got %v", cfg.Settings.RequestTimeout.Duration)
	}
	// Bare numbers are seconds, matching the classic settings file shape.
	if cfg.Settings.DelayBetweenRequests.Duration != 2500*time.Millisecond {
		t.Fatalf("numeric seconds: got %v", cfg.Settings.DelayBetweenRequests.Duration)
	}
	if cfg.Settings.BackoffBase.Duration != 250*time.Millisecond {
		t.Fatalf("millisecond duration: got %v", cfg.Settings.BackoffBase.Duration)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
settings:
  concurent_requests: 5
sources:
  blog_posts:
    - url: https://example.com/post
`))
	if err == nil {
		t.Fatal("expected misspelled key to be rejected")
	}
}

func TestValidateRequiresSources(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
settings:
  concurrent_requests: 3
`))
	if err == nil || !strings.Contains(err.Error(), "at least one source") {
		t.Fatalf("expected missing-sources error, got %v", err)
	}
}

func TestValidateBoundsWorkers(t *testing.T) {
	for _, workers := range []string{"0", "21"} {
		_, err := LoadFromReader(strings.NewReader(`
settings:
  concurrent_requests: ` + workers + `
sources:
  blog_posts:
    - url: https://example.com/post
`))
		if err == nil {
			t.Fatalf("expected concurrent_requests=%s to be rejected", workers)
		}
	}
}

func TestValidateRejectsEmptySourceURL(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
sources:
  youtube_videos:
    - title: no url here
`))
	if err == nil || !strings.Contains(err.Error(), "empty url") {
		t.Fatalf("expected empty-url error, got %v", err)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "env-key")

	cfg, err := LoadFromReader(strings.NewReader(`
settings:
  youtube_api_key: file-key
sources:
  youtube_videos:
    - url: https://www.youtube.com/watch?v=dQw4w9WgXcQ
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.YouTubeAPIKey != "env-key" {
		t.Fatalf("expected env key to win, got %q", cfg.Settings.YouTubeAPIKey)
	}
}

func TestCheckerMappingCarriesSignatureOverrides(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
signatures:
  amazon_out_of_stock:
    - back in stock soon
sources:
  blog_posts:
    - url: https://example.com/post
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checkerCfg := cfg.Checker()
	if len(checkerCfg.Signatures.AmazonOutOfStock) != 1 || checkerCfg.Signatures.AmazonOutOfStock[0] != "back in stock soon" {
		t.Fatalf("signature override lost in mapping: %+v", checkerCfg.Signatures)
	}
	if checkerCfg.ConcurrentRequests != 3 || checkerCfg.RetryAttempts != 3 {
		t.Fatalf("settings lost in mapping: %+v", checkerCfg)
	}
}
