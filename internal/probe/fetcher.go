package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultUserAgent = "pagewatch/1.0"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// HTTPFetcher retrieves the raw document of a target.
type HTTPFetcher struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
	// Resolve classifies the host after a transport failure; nil disables it.
	Resolve func(ctx context.Context, host string) DNSStatus
	Logger  *zap.Logger
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		MaxBytes:  maxBytes,
		UserAgent: userAgent,
		Resolve:   CheckDNS,
		Logger:    zap.NewNop(),
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", h.UserAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", h.annotate(ctx, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > h.MaxBytes {
		// Changes past the cap are invisible to the fingerprint.
		body = body[:h.MaxBytes]
		if h.Logger != nil {
			h.Logger.Warn("fetch_truncated",
				zap.String("target", target),
				zap.Int64("max_bytes", h.MaxBytes),
			)
		}
	}
	return string(body), nil
}

// annotate appends the DNS class of the host so a dead domain reads differently
// from a refused connection.
func (h *HTTPFetcher) annotate(ctx context.Context, target string, err error) error {
	if h.Resolve == nil || errors.Is(err, context.Canceled) {
		return err
	}
	dns := h.Resolve(ctx, extractHost(target))
	if dns.Class == "" || dns.Class == ClassResolves {
		return err
	}
	return fmt.Errorf("%w (dns=%s)", err, dns.Class)
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
