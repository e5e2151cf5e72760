// Package wikipedia is a client for the MediaWiki action API, used as a
// web-search backend for agent runs.
package wikipedia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/annobench/internal/resilience"
)

const defaultBaseURL = "https://en.wikipedia.org/w/api.php"

// Client performs searches against the MediaWiki API.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Page, error)
}

// Page is a single search hit with its intro extract.
type Page struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"url"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the request rate limit in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a MediaWiki API client. The default rate limit stays
// well under the API's anonymous-client ceiling.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search runs a full-text search and fetches intro extracts for the top
// hits in a second request.
func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 5
	}

	titles, err := c.searchTitles(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, nil
	}

	return c.fetchExtracts(ctx, titles)
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *httpClient) searchTitles(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("format", "json")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "wikipedia: unmarshal search response")
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

type extractsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *httpClient) fetchExtracts(ctx context.Context, titles []string) ([]Page, error) {
	joined := ""
	for i, t := range titles {
		if i > 0 {
			joined += "|"
		}
		joined += t
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|info")
	params.Set("titles", joined)
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("inprop", "url")
	params.Set("format", "json")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp extractsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "wikipedia: unmarshal extracts response")
	}

	byTitle := make(map[string]Page, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		byTitle[p.Title] = Page{Title: p.Title, Extract: p.Extract, URL: p.FullURL}
	}

	// Preserve search ranking order.
	pages := make([]Page, 0, len(titles))
	for _, t := range titles {
		if p, ok := byTitle[t]; ok {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func (c *httpClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "wikipedia: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: create request")
	}
	req.Header.Set("User-Agent", "annobench/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: read response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := eris.Errorf("wikipedia: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	return body, nil
}
