// internal/api/client.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gamemaps/viewer/internal/datasource"
)

var (
	// ErrFetch is matched by every non-2xx response error.
	ErrFetch = errors.New("fetch failed")
	// ErrDecode is returned when a document is not valid YAML for the target.
	ErrDecode = errors.New("decode failed")
)

// FetchError carries the HTTP status and URL of a failed document fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %s", e.URL, e.Status)
}

// Is makes errors.Is(err, ErrFetch) true for any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Client fetches YAML content documents from the static bundle or the content API.
type Client struct {
	source     *datasource.Source
	revision   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBundleDir serves file:// URLs from dir, so a static bundle on disk can be read
// with a "file://" CDN prefix.
func WithBundleDir(dir string) Option {
	return func(c *Client) {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.RegisterProtocol("file", http.NewFileTransport(http.Dir(dir)))
		c.httpClient.Transport = t
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a content client. revision is appended as a cache-busting build parameter.
func New(source *datasource.Source, revision string, opts ...Option) *Client {
	c := &Client{
		source:     source,
		revision:   revision,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the data source used to resolve paths.
func (c *Client) Source() *datasource.Source {
	return c.source
}

// URL resolves relPath against the current data mode and tags it with the build revision.
func (c *Client) URL(relPath string) string {
	return c.withRevision(c.source.Resolve(relPath))
}

func (c *Client) withRevision(raw string) string {
	if c.revision == "" {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "build=" + url.QueryEscape(c.revision)
}

// Fetch loads relPath from the current data source and decodes it into out.
// Every call goes to the network.
func (c *Client) Fetch(ctx context.Context, relPath string, out any) error {
	return c.FetchURL(ctx, c.URL(relPath), out)
}

// FetchURL loads an absolute document URL and decodes it into out.
func (c *Client) FetchURL(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request for %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rawURL, err)
	}

	if err := yaml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, rawURL, err)
	}
	return nil
}

// Request names one document to load and where to decode it.
type Request struct {
	Path string
	Out  any
}

// FetchAll loads all requests in parallel. It fails as a unit: if any fetch fails the
// first error is returned and the caller must not commit any of the outputs.
func (c *Client) FetchAll(ctx context.Context, reqs ...Request) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range reqs {
		g.Go(func() error {
			return c.Fetch(ctx, r.Path, r.Out)
		})
	}
	return g.Wait()
}
