package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/membank-rc/membank/internal/branding"
	"github.com/membank-rc/membank/internal/config"
	"github.com/membank-rc/membank/internal/retry"
)

// maxBodySize caps how much of a response is read into memory.
var maxBodySize int64 = 10 << 20

// Client fetches extension files and listings from the remote repository.
type Client struct {
	httpClient *http.Client
	settings   config.Settings
	userAgent  string
	token      string
	logger     *slog.Logger
	sleep      retry.SleepFunc
	onRetry    func(retry.Event)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithVersion appends the build version to the User-Agent header.
func WithVersion(v string) Option {
	return func(cl *Client) {
		cl.userAgent = branding.UserAgent() + "/" + v
	}
}

// WithToken sets the token sent to the listing API. By default GITHUB_TOKEN
// is used when set.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithSleep replaces the backoff sleep, so tests do not wait.
func WithSleep(fn retry.SleepFunc) Option {
	return func(cl *Client) {
		cl.sleep = fn
	}
}

// WithRetryHook is called before every backoff, after the retry is logged.
func WithRetryHook(fn func(retry.Event)) Option {
	return func(cl *Client) {
		cl.onRetry = fn
	}
}

// New creates a Client for the given settings.
func New(settings config.Settings, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		settings:   settings,
		userAgent:  branding.UserAgent(),
		token:      os.Getenv("GITHUB_TOKEN"),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the settings the client was created with.
func (c *Client) Settings() config.Settings {
	return c.settings
}

// FileURL returns the raw content URL of a repository-relative path.
func (c *Client) FileURL(rel string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimRight(c.settings.RawBaseURL, "/"),
		c.settings.Repo,
		c.settings.Branch,
		strings.TrimLeft(rel, "/"),
	)
}

// Fetch downloads a repository-relative file.
func (c *Client) Fetch(ctx context.Context, rel string) ([]byte, error) {
	return c.Get(ctx, c.FileURL(rel))
}

// Get downloads the body at url, retrying transient failures.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return retry.DoValue(ctx, c.policy(http.MethodGet, url), func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, url, nil)
	})
}

// Head checks that url is reachable, retrying transient failures.
func (c *Client) Head(ctx context.Context, url string) error {
	return c.policy(http.MethodHead, url).Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.settings.HeadTimeout)
		defer cancel()

		resp, err := c.do(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
}

func (c *Client) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, retry.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, maxBodySize))
	}
	return body, nil
}

// do sends one request. Non-2xx responses become *StatusError, and 404 is
// marked permanent.
func (c *Client) do(ctx context.Context, method, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("sending request", "method", method, "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		statusErr := &StatusError{Code: resp.StatusCode, Method: method, URL: url}
		if resp.StatusCode == http.StatusNotFound {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return resp, nil
}

func (c *Client) policy(method, url string) retry.Policy {
	return retry.Policy{
		MaxRetries: c.settings.MaxRetries,
		Sleep:      c.sleep,
		OnRetry: func(e retry.Event) {
			c.logger.Warn("request failed, retrying",
				"method", method,
				"url", url,
				"attempt", e.Attempt,
				"of", e.Of,
				"delay", e.Delay.Round(time.Millisecond).String(),
				"kind", e.Kind.String(),
				"error", e.Err,
			)
			if c.onRetry != nil {
				c.onRetry(e)
			}
		},
	}
}
