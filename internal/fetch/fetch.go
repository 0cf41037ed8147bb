// Package fetch provides bounded HTTP downloads of statement documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// DefaultTimeout is the default per-download timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBytes caps a single statement download. Carrier portals
// occasionally serve multi-hundred-megabyte exports by mistake; anything over
// this limit fails the item rather than the process.
const DefaultMaxBytes = 25 << 20 // 25 MiB

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; StatementCollector/1.0)"

// Error represents a download failure for one URL.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures download behavior.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for statement downloads.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		MaxBytes:  DefaultMaxBytes,
		UserAgent: DefaultUserAgent,
	}
}

// Download retrieves the document at urlStr, honoring the timeout and size
// limit in opts. A nil opts uses DefaultOptions.
func Download(ctx context.Context, urlStr string, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	// Read one byte past the limit so an at-limit payload is distinguishable
	// from an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > maxBytes {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("payload exceeds %d byte limit", maxBytes)}
	}

	return body, nil
}

// FilenameFromURL derives a document filename from a URL path, falling back
// to fallback when the path carries no usable name. A derived name without a
// document extension gets ".pdf" appended, since portals routinely serve
// statements from extensionless download endpoints.
func FilenameFromURL(urlStr, fallback string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fallback
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return fallback
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".pdf", ".xlsx", ".xls", ".csv":
		return name
	}
	return name + ".pdf"
}
