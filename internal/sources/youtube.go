package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// VideoID extracts the 11-character YouTube video ID from a URL.
func VideoID(rawURL string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

func (c *Collector) fetchVideo(ctx context.Context, video Entry) sourceContent {
	id := VideoID(video.URL)
	if id == "" {
		return sourceContent{title: orDefault(video.Title, "Unknown Video"), err: "invalid YouTube URL"}
	}

	if c.apiKey != "" {
		if content, ok := c.fetchVideoAPI(ctx, id, video.Title); ok {
			return content
		}
	}
	return c.scrapeVideo(ctx, video)
}

// fetchVideoAPI asks the YouTube Data API for the video snippet. Any failure
// falls back to page scraping.
func (c *Collector) fetchVideoAPI(ctx context.Context, id, title string) (sourceContent, bool) {
	endpoint := "https://www.googleapis.com/youtube/v3/videos?part=snippet&id=" +
		url.QueryEscape(id) + "&key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return sourceContent{}, false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("youtube api request failed", "video", id, "error", err)
		return sourceContent{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("youtube api rejected request", "video", id, "status", resp.StatusCode)
		return sourceContent{}, false
	}

	var payload struct {
		Items []struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || len(payload.Items) == 0 {
		return sourceContent{}, false
	}

	snippet := payload.Items[0].Snippet
	return sourceContent{
		title: orDefault(title, snippet.Title),
		text:  snippet.Description,
	}, true
}

var shortDescriptionPattern = regexp.MustCompile(`"shortDescription":"((?:[^"\\]|\\.)*)"`)

func (c *Collector) scrapeVideo(ctx context.Context, video Entry) sourceContent {
	resp, err := c.get(ctx, video.URL)
	if err != nil {
		return sourceContent{
			title: orDefault(video.Title, "YouTube Video"),
			err:   fmt.Sprintf("failed to fetch video: %v", err),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sourceContent{
			title: orDefault(video.Title, "YouTube Video"),
			err:   fmt.Sprintf("failed to fetch video: status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return sourceContent{
			title: orDefault(video.Title, "YouTube Video"),
			err:   fmt.Sprintf("failed to read video page: %v", err),
		}
	}
	page := string(body)

	title := video.Title
	if title == "" {
		title = pageTitle(page)
		title = strings.TrimSuffix(title, " - YouTube")
	}

	description := ""
	if m := shortDescriptionPattern.FindStringSubmatch(page); m != nil {
		// The description is a JSON string literal inside the player config.
		if unquoted, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
			description = unquoted
		} else {
			description = m[1]
		}
	}

	return sourceContent{title: orDefault(title, "YouTube Video"), text: description}
}

var titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func pageTitle(page string) string {
	if m := titleTagPattern.FindStringSubmatch(page); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
