// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/helper/gc"
)

// DefaultURL is Google's attestation status endpoint.
const DefaultURL = "https://android.googleapis.com/attestation/status"

// maxBodyBytes bounds the status list download.
const maxBodyBytes = 32 << 20

var (
	// ErrSourceUnreachable covers every way the remote list can fail: transport
	// errors, timeouts, non-200 responses and undecodable bodies.
	ErrSourceUnreachable = errors.New("revocation: source unreachable")

	// ErrSnapshotUnreadable indicates that the local fallback snapshot cannot be used.
	ErrSnapshotUnreadable = errors.New("revocation: snapshot unreadable")
)

// HTTPConfig holds HTTP client configuration for the status fetch.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a 10 second timeout.
//
// Parameters:
//   - version: Application version string
//
// Returns:
//   - *HTTPConfig: New HTTP configuration
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout: 10 * time.Second,
		Version: version,
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("Keybox-Checker/%s (+https://github.com/H0llyW00dzZ/keybox-checker)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// Source produces a revocation list.
type Source interface {
	Fetch(ctx context.Context) (*List, error)
}

// Oracle fetches the live status list over HTTPS.
type Oracle struct {
	URL        string
	HTTPConfig *HTTPConfig
	// Now stamps the cache-busting query parameter and FetchedAt; nil means time.Now.
	Now func() time.Time
}

// NewOracle returns an Oracle for DefaultURL.
func NewOracle(version string) *Oracle {
	return &Oracle{URL: DefaultURL, HTTPConfig: NewHTTPConfig(version)}
}

func (o *Oracle) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Fetch downloads and decodes the status list.
//
// The request bypasses caches with a ts query parameter and no-cache headers.
// There are no retries; the caller decides what to do on failure.
//
// Returns:
//   - *List: decoded list with Fallback false
//   - error: an error wrapping [ErrSourceUnreachable]; an empty list counts
//     as a failure
//
// Thread Safety: Safe for concurrent use.
func (o *Oracle) Fetch(ctx context.Context) (*List, error) {
	now := o.now()

	u, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}
	q := u.Query()
	q.Set("ts", strconv.FormatInt(now.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}

	cfg := o.HTTPConfig
	if cfg == nil {
		cfg = NewHTTPConfig("dev")
	}
	req.Header.Set("User-Agent", cfg.GetUserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "max-age=0, no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := cfg.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnreachable, resp.StatusCode)
	}

	data, err := gc.ReadLimited(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}

	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}

	l.Source = o.URL
	l.FetchedAt = now.UTC()
	return l, nil
}

// LoadSnapshot reads the bundled fallback list from fsys.
//
// The snapshot's FetchedAt is its modification time, which is what staleness
// checks measure. A missing, unreadable, undecodable or empty snapshot returns
// [ErrSnapshotUnreadable]; callers treat this as a startup failure.
func LoadSnapshot(fsys fs.FS, path string) (*List, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSnapshotUnreadable, path, err)
	}

	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSnapshotUnreadable, path, err)
	}

	if info, err := fs.Stat(fsys, path); err == nil {
		l.FetchedAt = info.ModTime().UTC()
	}
	l.Fallback = true
	l.Source = path
	return l, nil
}
