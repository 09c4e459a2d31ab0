package sources

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoombar/linkpulse/internal/checker"
)

// Entry names one configured or discovered content source.
type Entry struct {
	URL   string
	Title string
}

// Source records the processing outcome for one video or post, including
// fetch failures, so the reporter can show sources that yielded nothing.
type Source struct {
	Kind  checker.SourceKind
	URL   string
	Title string
	Links int
	Err   string
}

// Options configures the source collector.
type Options struct {
	Client              *http.Client
	Timeout             time.Duration
	YouTubeAPIKey       string
	MaxVideosPerChannel int
	MaxPostsPerDomain   int
	CrawlDepth          int
	Logger              *slog.Logger
}

// Collector turns configured videos and posts into a flat list of link tasks
// for the validation engine.
type Collector struct {
	client  *http.Client
	logger  *slog.Logger
	rotator *checker.Rotator
	robots  *robotsAgent
	apiKey  string

	maxVideos  int
	maxPosts   int
	crawlDepth int
}

// NewCollector builds a collector from options; zero values get defaults.
func NewCollector(opts Options) *Collector {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxVideos := opts.MaxVideosPerChannel
	if maxVideos <= 0 {
		maxVideos = 50
	}
	maxPosts := opts.MaxPostsPerDomain
	if maxPosts <= 0 {
		maxPosts = 100
	}
	crawlDepth := opts.CrawlDepth
	if crawlDepth <= 0 {
		crawlDepth = 2
	}
	return &Collector{
		client:     client,
		logger:     logger,
		rotator:    checker.NewRotator(nil, time.Now().UnixNano()),
		robots:     newRobotsAgent(client),
		apiKey:     opts.YouTubeAPIKey,
		maxVideos:  maxVideos,
		maxPosts:   maxPosts,
		crawlDepth: crawlDepth,
	}
}

// Collect fetches each source's content and extracts affiliate links from it.
// Per-source failures are recorded, never fatal: a dead blog still appears in
// the source list with its error.
func (c *Collector) Collect(ctx context.Context, videos, posts []Entry) ([]checker.LinkTask, []Source) {
	var tasks []checker.LinkTask
	var processed []Source

	for _, video := range videos {
		if ctx.Err() != nil {
			break
		}
		content := c.fetchVideo(ctx, video)
		src := Source{Kind: checker.SourceVideo, URL: video.URL, Title: content.title, Err: content.err}
		links := ExtractAffiliateLinks(content.text)
		src.Links = len(links)
		processed = append(processed, src)
		tasks = append(tasks, toTasks(src, links)...)
	}

	for _, post := range posts {
		if ctx.Err() != nil {
			break
		}
		content := c.fetchPost(ctx, post)
		src := Source{Kind: checker.SourcePost, URL: post.URL, Title: content.title, Err: content.err}
		links := ExtractAffiliateLinks(content.text)
		src.Links = len(links)
		processed = append(processed, src)
		tasks = append(tasks, toTasks(src, links)...)
	}

	c.logger.Info("sources processed", "sources", len(processed), "links", len(tasks))
	return tasks, processed
}

func toTasks(src Source, links []ExtractedLink) []checker.LinkTask {
	tasks := make([]checker.LinkTask, 0, len(links))
	for _, link := range links {
		tasks = append(tasks, checker.LinkTask{
			SourceTitle: src.Title,
			SourceURL:   src.URL,
			SourceKind:  src.Kind,
			Title:       link.Title,
			URL:         link.URL,
		})
	}
	return tasks
}

type sourceContent struct {
	title string
	text  string
	err   string
}

func (c *Collector) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	identity := c.rotator.Next()
	req.Header.Set("User-Agent", identity.UserAgent)
	for k, v := range identity.Headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}
