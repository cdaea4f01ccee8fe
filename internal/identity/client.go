package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultLoginPath is used when no login path override is configured
	DefaultLoginPath = "/auth/login"

	// DefaultTimeout bounds every call to the identity service
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

var (
	ErrNotConfigured      = errors.New("identity service is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("identity service unavailable")
)

// Checker validates admin credentials against the external identity service
type Checker interface {
	CheckCredentials(ctx context.Context, username, password string) error
	NotifyLogout(ctx context.Context, username string) error
}

// Options configures a Client
type Options struct {
	BaseURL    string
	LoginPath  string
	LogoutPath string
	APIKey     string
	Timeout    time.Duration
}

// Client represents an HTTP client for the identity-checking service
type Client struct {
	baseURL    string
	loginPath  string
	logoutPath string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

var _ Checker = (*Client)(nil)

// New creates a new identity service client. An empty BaseURL yields a client
// whose calls fail with ErrNotConfigured without touching the network.
func New(opts Options) *Client {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimSpace(opts.BaseURL),
		loginPath:  loginPath,
		logoutPath: opts.LogoutPath,
		apiKey:     opts.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Configured reports whether a base URL is set
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// CheckCredentials posts the credentials form-encoded to the login endpoint.
// It returns nil on success, ErrInvalidCredentials on 401, and an error
// wrapping ErrUnavailable for transport failures, timeouts and other statuses.
func (c *Client) CheckCredentials(ctx context.Context, username, password string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.postForm(ctx, c.loginPath, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}

	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// NotifyLogout tells the identity service that a session ended. It is a no-op
// when no logout path is configured.
func (c *Client) NotifyLogout(ctx context.Context, username string) error {
	if c.logoutPath == "" {
		return nil
	}
	if !c.Configured() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("username", username)

	resp, err := c.postForm(ctx, c.logoutPath, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	endpoint, err := ResolveURL(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: failed to send request: %v", ErrUnavailable, err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context once the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// StatusError is returned for non-success responses other than 401
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("identity service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("identity service returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers match StatusError with errors.Is(err, ErrUnavailable)
func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}

// ResolveURL joins a base URL and a path. Absolute paths replace the base
// path, matching browser URL resolution.
func ResolveURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
	}

	return u.ResolveReference(ref).String(), nil
}
