package sources

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

type fakeTransport struct {
	pages map[string]string
}

func (t fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.Host + req.URL.Path
	if req.URL.RawQuery != "" {
		key += "?" + req.URL.RawQuery
	}
	page, ok := t.pages[key]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(page)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestCollector(pages map[string]string) *Collector {
	return NewCollector(Options{
		Client: &http.Client{Transport: fakeTransport{pages: pages}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestCollectVideoByScraping(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Best Desk Gadgets 2026 - YouTube</title></head>
<body><script>var ytInitialPlayerResponse = {"videoDetails":{"shortDescription":"My favourite gadget:\nhttps://amzn.to/3abcDEF\n\nThanks for watching!"}};</script></body></html>`

	c := newTestCollector(map[string]string{
		"www.youtube.com/watch?v=dQw4w9WgXcQ": page,
	})

	tasks, processed := c.Collect(context.Background(),
		[]Entry{{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}}, nil)

	if len(processed) != 1 {
		t.Fatalf("expected 1 processed source, got %+v", processed)
	}
	src := processed[0]
	if src.Err != "" {
		t.Fatalf("unexpected source error: %q", src.Err)
	}
	if src.Title != "Best Desk Gadgets 2026" {
		t.Fatalf("expected title from page, got %q", src.Title)
	}
	if src.Links != 1 || len(tasks) != 1 {
		t.Fatalf("expected 1 extracted link, got src=%+v tasks=%+v", src, tasks)
	}
	task := tasks[0]
	if task.URL != "https://amzn.to/3abcDEF" {
		t.Fatalf("unexpected task URL %q", task.URL)
	}
	if task.SourceTitle != "Best Desk Gadgets 2026" || string(task.SourceKind) != "video" {
		t.Fatalf("task lost its source: %+v", task)
	}
}

func TestCollectPostFindsAnchorOnlyLinks(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Desk Setup Roundup</title></head><body>
<h1>Desk Setup Roundup</h1>
<p>My monitor arm is <a href="https://www.amazon.co.uk/dp/B0MONITOR1?tag=blog-21">this one</a>.</p>
</body></html>`

	c := newTestCollector(map[string]string{
		"example.com/desk-setup": page,
	})

	tasks, processed := c.Collect(context.Background(), nil,
		[]Entry{{URL: "https://example.com/desk-setup"}})

	if len(processed) != 1 || processed[0].Err != "" {
		t.Fatalf("unexpected sources: %+v", processed)
	}
	if processed[0].Title != "Desk Setup Roundup" {
		t.Fatalf("expected page title, got %q", processed[0].Title)
	}
	if len(tasks) != 1 || tasks[0].URL != "https://www.amazon.co.uk/dp/B0MONITOR1?tag=blog-21" {
		t.Fatalf("href-only link not extracted: %+v", tasks)
	}
	if string(tasks[0].SourceKind) != "post" {
		t.Fatalf("expected post kind, got %q", tasks[0].SourceKind)
	}
}

func TestCollectRecordsFetchFailure(t *testing.T) {
	t.Parallel()

	c := newTestCollector(nil)
	tasks, processed := c.Collect(context.Background(), nil,
		[]Entry{{URL: "https://example.com/missing", Title: "Dead post"}})

	if len(tasks) != 0 {
		t.Fatalf("dead source yielded tasks: %+v", tasks)
	}
	if len(processed) != 1 {
		t.Fatalf("expected the dead source in the list, got %+v", processed)
	}
	if processed[0].Err == "" {
		t.Fatal("expected a recorded fetch error")
	}
	if processed[0].Title != "Dead post" {
		t.Fatalf("expected configured title kept, got %q", processed[0].Title)
	}
}

func TestVideoID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":         "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s": "dQw4w9WgXcQ",
		"https://example.com/watch?v=nope":                  "",
	}
	for rawURL, want := range cases {
		if got := VideoID(rawURL); got != want {
			t.Fatalf("VideoID(%q) = %q, want %q", rawURL, got, want)
		}
	}
}
