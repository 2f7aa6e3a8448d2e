// Package search queries DuckDuckGo for the web search tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IronClad1607/research-agent/pkg/htmlx"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/fogfish/opts"
	"golang.org/x/net/html"
)

const (
	// DefaultEndpoint is the DuckDuckGo lite HTML interface.
	DefaultEndpoint   = "https://lite.duckduckgo.com/lite/"
	DefaultTimeout    = 15 * time.Second
	DefaultMaxResults = 5

	ToolName        = "search"
	ToolDescription = "Search the web for information"

	noResults = "No good DuckDuckGo Search Result was found"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// Result is one organic search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// DuckDuckGo scrapes the DuckDuckGo lite page.
type DuckDuckGo struct {
	endpoint   string
	maxResults int
	timeout    time.Duration
	client     *http.Client
}

var (
	WithEndpoint   = opts.ForName[DuckDuckGo, string]("endpoint")
	WithMaxResults = opts.ForName[DuckDuckGo, int]("maxResults")
	WithTimeout    = opts.ForName[DuckDuckGo, time.Duration]("timeout")
)

// WithHTTPClient replaces the HTTP client. The timeout option is ignored then.
func WithHTTPClient(client *http.Client) opts.Option[DuckDuckGo] {
	return opts.Type[DuckDuckGo](func(d *DuckDuckGo) error {
		d.client = client
		return nil
	})
}

func New(options ...opts.Option[DuckDuckGo]) (*DuckDuckGo, error) {
	d := &DuckDuckGo{
		endpoint:   DefaultEndpoint,
		maxResults: DefaultMaxResults,
		timeout:    DefaultTimeout,
	}
	if err := opts.Apply(d, options); err != nil {
		return nil, err
	}

	var err error
	if _, perr := url.Parse(d.endpoint); perr != nil || d.endpoint == "" {
		err = errors.Join(err, fmt.Errorf("invalid endpoint %q", d.endpoint))
	}
	if d.maxResults <= 0 {
		err = errors.Join(err, fmt.Errorf("max results must be positive, got %d", d.maxResults))
	}
	if d.timeout <= 0 {
		err = errors.Join(err, fmt.Errorf("timeout must be positive, got %s", d.timeout))
	}
	if err != nil {
		return nil, err
	}

	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	return d, nil
}

// Tool exposes Run as the search tool.
func (d *DuckDuckGo) Tool() tool.Definition {
	return tool.Must(d.Run, tool.Name(ToolName), tool.Description(ToolDescription))
}

// Run searches for query and summarises the hits as text, one per paragraph.
func (d *DuckDuckGo) Run(ctx context.Context, query string) (string, error) {
	results, err := d.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return noResults, nil
	}
	return Summarize(results), nil
}

// Summarize renders results as "title: snippet (url)" paragraphs.
func Summarize(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		b.WriteString(r.Title)
		if r.Snippet != "" {
			b.WriteString(": ")
			b.WriteString(r.Snippet)
		}
		if r.URL != "" {
			b.WriteString(" (")
			b.WriteString(r.URL)
			b.WriteString(")")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Search returns at most the configured number of results for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := parseResults(doc, d.maxResults)
	slog.DebugContext(ctx, "duckduckgo search",
		slogx.LoggerName("search"),
		slog.String("query", query),
		slog.Int("results", len(results)),
	)
	return results, nil
}

// parseResults walks the lite page in document order. A result-link anchor
// opens a result and the next result-snippet cell completes it.
func parseResults(doc *html.Node, limit int) []Result {
	var results []Result
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && htmlx.HasClass(n, "result-link"):
				if len(results) == limit {
					return false
				}
				href, _ := htmlx.Attr(n, "href")
				title := htmlx.NodeText(n)
				if title == "" || href == "" {
					return true
				}
				results = append(results, Result{Title: title, URL: resolveLink(href)})
				return true
			case n.Data == "td" && htmlx.HasClass(n, "result-snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = htmlx.NodeText(n)
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return results
}

// resolveLink unwraps DuckDuckGo redirect links to the target URL.
func resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Host, "duckduckgo.com") {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		u.Scheme = "https"
		return u.String()
	}
	return href
}
