// Package wikipedia looks up article summaries through the MediaWiki API.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/IronClad1607/research-agent/pkg/htmlx"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/fogfish/opts"
	"github.com/tidwall/gjson"
)

const (
	DefaultLang     = "en"
	DefaultTopK     = 5
	DefaultMaxChars = 500
	DefaultTimeout  = 15 * time.Second

	// MaxQueryLength is the longest search string sent to the API.
	MaxQueryLength = 300

	ToolName        = "wikipedia"
	ToolParameter   = "query"
	ToolDescription = "A wrapper around Wikipedia. Useful for when you need to answer general questions about " +
		"people, places, companies, facts, historical events, or other subjects. Input should be a search query."

	NoResults = "No good Wikipedia Search Result was found"
)

// Page is an article title with its introduction.
type Page struct {
	Title   string
	Summary string
}

// Client queries one language edition of Wikipedia.
type Client struct {
	lang     string
	endpoint string
	topK     int
	maxChars int
	timeout  time.Duration
	client   *http.Client
}

var (
	WithLang     = opts.ForName[Client, string]("lang")
	WithTopK     = opts.ForName[Client, int]("topK")
	WithMaxChars = opts.ForName[Client, int]("maxChars")
	WithTimeout  = opts.ForName[Client, time.Duration]("timeout")
	// WithEndpoint overrides the api.php URL derived from the language.
	WithEndpoint = opts.ForName[Client, string]("endpoint")
)

// WithHTTPClient replaces the HTTP client. The timeout option is ignored then.
func WithHTTPClient(client *http.Client) opts.Option[Client] {
	return opts.Type[Client](func(c *Client) error {
		c.client = client
		return nil
	})
}

func New(options ...opts.Option[Client]) (*Client, error) {
	c := &Client{
		lang:     DefaultLang,
		topK:     DefaultTopK,
		maxChars: DefaultMaxChars,
		timeout:  DefaultTimeout,
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}

	var err error
	if strings.TrimSpace(c.lang) == "" {
		err = errors.Join(err, errors.New("language is required"))
	}
	if c.topK <= 0 {
		err = errors.Join(err, fmt.Errorf("top k must be positive, got %d", c.topK))
	}
	if c.maxChars <= 0 {
		err = errors.Join(err, fmt.Errorf("max chars must be positive, got %d", c.maxChars))
	}
	if c.timeout <= 0 {
		err = errors.Join(err, fmt.Errorf("timeout must be positive, got %s", c.timeout))
	}
	if err != nil {
		return nil, err
	}

	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", c.lang)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// Tool exposes Run as the wikipedia tool.
func (c *Client) Tool() tool.Definition {
	return tool.Must(c.Run,
		tool.Name(ToolName),
		tool.Description(ToolDescription),
		tool.Parameter(ToolParameter),
	)
}

// Run returns "Page: <title>\nSummary: <summary>" blocks for the best
// matches, cut to the configured number of characters.
func (c *Client) Run(ctx context.Context, query string) (string, error) {
	pages, err := c.Lookup(ctx, query)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Summary == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Page: %s\nSummary: %s", p.Title, p.Summary))
	}
	if len(blocks) == 0 {
		return NoResults, nil
	}
	return truncate(strings.Join(blocks, "\n\n"), c.maxChars), nil
}

// Lookup searches for query and returns the summaries of the top matches in
// search rank order.
func (c *Client) Lookup(ctx context.Context, query string) ([]Page, error) {
	query = truncate(strings.TrimSpace(query), MaxQueryLength)
	if query == "" {
		return nil, errors.New("query is empty")
	}

	found, err := c.get(ctx, url.Values{
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(c.topK)},
		"srprop":   {"snippet"},
	})
	if err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}

	hits := found.Get("query.search").Array()
	if len(hits) == 0 {
		return nil, nil
	}

	pages := make([]Page, 0, len(hits))
	titles := make([]string, 0, len(hits))
	for _, hit := range hits {
		title := hit.Get("title").String()
		pages = append(pages, Page{Title: title, Summary: htmlx.Text(hit.Get("snippet").String())})
		titles = append(titles, title)
	}

	extracts, err := c.get(ctx, url.Values{
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"exlimit":     {strconv.Itoa(len(titles))},
		"titles":      {strings.Join(titles, "|")},
	})
	if err != nil {
		return nil, fmt.Errorf("wikipedia extracts: %w", err)
	}

	byTitle := make(map[string]string, len(titles))
	extracts.Get("query.pages").ForEach(func(_, page gjson.Result) bool {
		if extract := strings.TrimSpace(page.Get("extract").String()); extract != "" {
			byTitle[page.Get("title").String()] = extract
		}
		return true
	})
	// normalized titles come back under their canonical spelling
	extracts.Get("query.normalized").ForEach(func(_, n gjson.Result) bool {
		if extract, ok := byTitle[n.Get("to").String()]; ok {
			byTitle[n.Get("from").String()] = extract
		}
		return true
	})

	for i := range pages {
		if extract, ok := byTitle[pages[i].Title]; ok {
			pages[i].Summary = extract
		}
	}

	slog.DebugContext(ctx, "wikipedia lookup",
		slogx.LoggerName("wikipedia"),
		slog.String("query", query),
		slog.Int("pages", len(pages)),
	)
	return pages, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (gjson.Result, error) {
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("User-Agent", "research-agent/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("http %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("invalid json response")
	}

	result := gjson.ParseBytes(body)
	if apiErr := result.Get("error.info"); apiErr.Exists() {
		return gjson.Result{}, fmt.Errorf("api error: %s", apiErr.String())
	}
	return result, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
