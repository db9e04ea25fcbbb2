package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	bravesearch "github.com/cnosuke/go-brave-search"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultResults = 5
	maxResults     = 20
	maxFetchBytes  = 100 * 1024
	userAgent      = "francisco/1.0"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// Web lets the agent look things up while working on a task: a Brave
// search or a plain-text fetch of a single URL.
type Web struct {
	brave  *bravesearch.Client
	client *http.Client
}

func NewWeb(braveAPIKey string) (*Web, error) {
	brave, err := bravesearch.NewClient(braveAPIKey)
	if err != nil {
		return nil, fmt.Errorf("brave client: %w", err)
	}
	return &Web{
		brave: brave,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (w *Web) Name() string { return "web" }
func (w *Web) Description() string {
	return "Search the web for documentation and examples, or fetch the text of a URL"
}

func (w *Web) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"search", "fetch"},
				"description": "search the web or fetch a URL",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Search query; empty string for fetch",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "URL to fetch; empty string for search",
			},
			"count": map[string]any{
				"type":        "number",
				"description": "Number of search results (default 5, max 20)",
			},
		},
		"required":             []string{"action", "query", "url", "count"},
		"additionalProperties": false,
	}
}

type webArgs struct {
	Action string `json:"action"`
	Query  string `json:"query"`
	URL    string `json:"url"`
	Count  int    `json:"count"`
}

func (w *Web) Execute(ctx context.Context, input string) (string, error) {
	var args webArgs
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing web input: %w", err)
	}

	switch args.Action {
	case "search":
		return w.search(ctx, args.Query, args.Count)
	case "fetch":
		return w.fetch(ctx, args.URL)
	default:
		return "", fmt.Errorf("unknown action %q", args.Action)
	}
}

func (w *Web) search(ctx context.Context, query string, count int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("query is required for search")
	}
	count = min(max(count, 0), maxResults)
	if count == 0 {
		count = defaultResults
	}

	slog.Debug("web search", "query", query, "count", count)

	resp, err := w.brave.WebSearch(ctx, query, &bravesearch.WebSearchParams{Count: count})
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}

	results := resp.GetWebResults()
	if len(results) == 0 {
		return "No results found.", nil
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%d. %s\n%s\n%s", i+1, r.Title, r.URL, r.Description)
	}
	return truncate(strings.Join(parts, "\n\n")), nil
}

func (w *Web) fetch(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("fetch needs an http(s) url, got %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	text := plainText(string(body))
	slog.Debug("web fetch", "url", url, "status", resp.StatusCode, "chars", len(text))
	return truncate(text), nil
}

// plainText strips markup and collapses whitespace.
func plainText(html string) string {
	html = scriptRe.ReplaceAllString(html, " ")
	html = tagRe.ReplaceAllString(html, " ")
	return strings.Join(strings.Fields(html), " ")
}
