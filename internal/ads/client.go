package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the ADS API base URL.
	BaseURL = "https://api.adsabs.harvard.edu/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit caps outbound requests per second. ADS enforces a daily
	// quota; the per-second limit just keeps batch runs polite.
	RateLimit = 5.0

	// SearchFields is the field list requested for identifier lookups.
	SearchFields = "author,first_author,bibcode,identifier,alternate_bibcode,id,year,pubdate,title,abstract,links_data,esources,bibstem"
)

// Client is a rate-limited HTTP client for the ADS API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the API token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a new ADS API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	// Check for API token in environment
	if token := os.Getenv("ADS_DEV_KEY"); token != "" {
		c.token = token
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// do executes an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// SearchByIdentifier looks up records matching a bibcode, arXiv id or DOI.
// The result order is whatever ADS returns; callers that need exactly one
// record decide their own policy for multi-match responses.
func (c *Client) SearchByIdentifier(ctx context.Context, identifier string) ([]Article, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("identifier:%q", identifier))
	query.Set("fl", SearchFields)

	data, err := c.do(ctx, http.MethodGet, "/search/query", query, nil)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Response struct {
			NumFound int       `json:"numFound"`
			Docs     []Article `json:"docs"`
		} `json:"response"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	return wrapper.Response.Docs, nil
}

// ExportBibTeX fetches the canonical BibTeX export for a resolved bibcode.
func (c *Client) ExportBibTeX(ctx context.Context, bibcode string) (string, error) {
	reqBody, err := json.Marshal(struct {
		Bibcode []string `json:"bibcode"`
	}{Bibcode: []string{bibcode}})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/export/bibtex", nil, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}

	var wrapper struct {
		Export string `json:"export"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return "", fmt.Errorf("%w: parsing export: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(wrapper.Export) == "" {
		return "", fmt.Errorf("%w: empty BibTeX export for %s", ErrInvalidResponse, bibcode)
	}

	return wrapper.Export, nil
}
