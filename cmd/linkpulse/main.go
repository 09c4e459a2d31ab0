// Command linkpulse checks affiliate links found in YouTube videos and blog
// posts, reporting which ones no longer resolve to a live product.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/hoombar/linkpulse/internal/checker"
	"github.com/hoombar/linkpulse/internal/config"
	"github.com/hoombar/linkpulse/internal/report"
	"github.com/hoombar/linkpulse/internal/sources"
)

const (
	exitOK          = 0
	exitBroken      = 1
	exitInterrupted = 130
)

var cli struct {
	Config       string `help:"Path to YAML configuration file." default:"config.yaml"`
	Verbose      bool   `short:"v" help:"Show detailed output including working links."`
	Format       string `help:"Output format." enum:"text,json,xlsx" default:"text"`
	Output       string `short:"o" help:"Write the report to a file instead of stdout (required for xlsx)."`
	Discover     bool   `short:"d" help:"Auto-discover videos from channels and posts from domains."`
	DiscoverOnly bool   `help:"Only discover sources, don't check affiliate links."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("linkpulse"),
		kong.Description("Check affiliate links in YouTube videos and blog posts."),
	)

	// Optional .env for YOUTUBE_API_KEY and friends.
	_ = godotenv.Load()

	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitBroken
	}

	logger := buildLogger(cfg.Logging, cli.Verbose)

	if cli.Format == "xlsx" && cli.Output == "" {
		fmt.Fprintln(os.Stderr, "error: --output is required with --format xlsx")
		return exitBroken
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := sources.NewCollector(sources.Options{
		Timeout:             cfg.Settings.RequestTimeout.Duration,
		YouTubeAPIKey:       cfg.Settings.YouTubeAPIKey,
		MaxVideosPerChannel: cfg.Settings.MaxVideosPerChannel,
		MaxPostsPerDomain:   cfg.Settings.MaxPostsPerDomain,
		CrawlDepth:          cfg.Settings.CrawlDepth,
		Logger:              logger,
	})

	videos := toEntries(cfg.Sources.YouTubeVideos)
	posts := toEntries(cfg.Sources.BlogPosts)

	if cli.Discover || cli.DiscoverOnly {
		foundVideos, foundPosts := collector.Discover(ctx,
			toEntries(cfg.Sources.YouTubeChannels),
			toEntries(cfg.Sources.WebsiteDomains),
		)
		videos = append(videos, foundVideos...)
		posts = append(posts, foundPosts...)
	}

	tasks, processed := collector.Collect(ctx, videos, posts)

	if cli.DiscoverOnly {
		printDiscovery(processed, len(tasks))
		return exitCode(ctx, nil)
	}

	if len(tasks) == 0 {
		fmt.Println("No affiliate links found in the provided sources.")
		return exitCode(ctx, nil)
	}

	checkerCfg := cfg.Checker()
	if cli.Verbose {
		checkerCfg.Progress = printProgress
	}

	result := checker.Validate(ctx, logger, checkerCfg, tasks)

	if err := render(result); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitBroken
	}
	return exitCode(ctx, result)
}

func exitCode(ctx context.Context, result *checker.Report) int {
	if ctx.Err() != nil || (result != nil && result.Interrupted) {
		return exitInterrupted
	}
	if result != nil && result.Stats.Broken > 0 {
		return exitBroken
	}
	return exitOK
}

func render(result *checker.Report) error {
	switch cli.Format {
	case "json":
		payload, err := report.JSON(result)
		if err != nil {
			return err
		}
		return emit(append(payload, '\n'))
	case "xlsx":
		if err := report.Excel(result, cli.Output); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", cli.Output)
		return nil
	default:
		return emit([]byte(report.Text(result, cli.Verbose)))
	}
}

func emit(payload []byte) error {
	if cli.Output != "" {
		return os.WriteFile(cli.Output, payload, 0o644)
	}
	_, err := os.Stdout.Write(payload)
	return err
}

func printProgress(result checker.LinkResult) {
	status := "FAIL"
	if result.Verdict.Working {
		status = " OK "
	}
	fmt.Printf("  [%s] %-40.40s %s\n", status, result.Task.SourceTitle, result.Task.URL)
}

func printDiscovery(processed []sources.Source, totalLinks int) {
	videos := 0
	posts := 0
	for _, src := range processed {
		if src.Kind == checker.SourceVideo {
			videos++
		} else {
			posts++
		}
	}
	fmt.Println("DISCOVERY RESULTS:")
	fmt.Printf("Found %d total sources\n", len(processed))
	fmt.Printf("  YouTube videos: %d\n", videos)
	fmt.Printf("  Blog posts: %d\n", posts)
	if cli.Verbose {
		for _, src := range processed {
			title := src.Title
			if len(title) > 60 {
				title = title[:60]
			}
			fmt.Printf("  * %s - %s (%d links)\n", title, src.URL, src.Links)
			if src.Err != "" {
				fmt.Printf("    error: %s\n", src.Err)
			}
		}
	}
	fmt.Printf("Total affiliate links found: %d\n", totalLinks)
}

func toEntries(entries []config.SourceEntry) []sources.Entry {
	out := make([]sources.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, sources.Entry{URL: entry.URL, Title: entry.Title})
	}
	return out
}

func buildLogger(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
