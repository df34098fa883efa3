package fulltext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// browserUserAgent is sent on every download; several publishers serve
// error pages to clients that do not look like a browser.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result reports the outcome of a retrieval attempt. Path names a local
// temp file when OK is true and is meaningless otherwise.
type Result struct {
	Path string
	OK   bool
}

// ProxyFetcher downloads a URL on a remote relay into a local file.
type ProxyFetcher interface {
	FetchPDF(pdfURL, destPath string) error
}

// Resolver tries the declared electronic sources of a record, in
// preference order, until one yields a verified PDF.
type Resolver struct {
	httpClient *http.Client
	gatewayURL string
	proxy      ProxyFetcher
	log        *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGatewayURL overrides the link-gateway base URL.
func WithGatewayURL(url string) ResolverOption {
	return func(r *Resolver) {
		r.gatewayURL = url
	}
}

// WithProxy sets the SSH relay used to retry failed publisher downloads.
func WithProxy(p ProxyFetcher) ResolverOption {
	return func(r *Resolver) {
		r.proxy = p
	}
}

// WithResolverHTTPClient sets a custom HTTP client.
func WithResolverHTTPClient(hc *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a full-text resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		gatewayURL: DefaultGatewayURL,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch attempts PDF retrieval for a record. Sources not listed in
// esources are skipped. Failures fall through to the next source; a
// publisher failure is retried once through the proxy when one is
// configured. Total failure is a non-error: Result.OK is false.
func (r *Resolver) Fetch(ctx context.Context, bibcode string, esources []string) Result {
	available := make(map[string]bool, len(esources))
	for _, s := range esources {
		available[strings.ToUpper(s)] = true
	}

	// arXiv-only records have no published version; publisher links on
	// them resolve to the wrong paper or a paywall page.
	arxivOnly := strings.Contains(strings.ToLower(bibcode), "arxiv")

	for _, kind := range SourceOrder {
		if !available[strings.ToUpper(kind)] {
			continue
		}
		if arxivOnly && isPublisherSource(kind) {
			continue
		}

		pdfURL := ESourceLink(r.gatewayURL, bibcode, kind)
		if kind == PubHTML {
			scraped, err := r.scrapePDFURL(ctx, pdfURL)
			if err != nil {
				r.log.Debug("scrape failed", "url", pdfURL, "error", err)
				continue
			}
			pdfURL = scraped
		}

		r.log.Debug("trying esource", "kind", kind, "url", pdfURL)
		path, err := r.download(ctx, pdfURL)
		if err == nil && IsPDF(path) {
			r.log.Debug("download verified", "kind", kind, "path", path)
			return Result{Path: path, OK: true}
		}
		if err != nil {
			r.log.Debug("download failed", "url", pdfURL, "error", err)
		}

		if isPublisherSource(kind) && r.proxy != nil {
			if path == "" {
				if tmp, err := tempPDFFile(); err == nil {
					path = tmp
				}
			}
			if path != "" {
				r.log.Debug("retrying through proxy", "url", pdfURL)
				if err := r.proxy.FetchPDF(pdfURL, path); err == nil && IsPDF(path) {
					return Result{Path: path, OK: true}
				}
			}
		}
	}

	return Result{}
}

// scrapePDFURL fetches a publisher HTML page and guesses the PDF link.
func (r *Resolver) scrapePDFURL(ctx context.Context, pageURL string) (string, error) {
	resp, err := r.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching article page: HTTP %d", resp.StatusCode)
	}
	// resp.Request.URL reflects redirects; publisher rewrite rules need the
	// final location, not the gateway URL.
	return pdfLinkFromHTML(resp.Request.URL.String(), resp.Body), nil
}

// download saves the URL's payload to a fresh temp file. The file is
// created even when the payload is rejected so the proxy retry has a
// destination; callers verify with IsPDF.
func (r *Resolver) download(ctx context.Context, url string) (string, error) {
	path, err := tempPDFFile()
	if err != nil {
		return "", err
	}

	resp, err := r.get(ctx, url)
	if err != nil {
		return path, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return path, fmt.Errorf("download refused: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("creating temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return path, fmt.Errorf("saving download: %w", err)
	}
	return path, nil
}

func (r *Resolver) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	return r.httpClient.Do(req)
}

func tempPDFFile() (string, error) {
	f, err := os.CreateTemp("", "ads2bibdesk-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	return path, nil
}
