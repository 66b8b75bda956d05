package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultUserAgent is sent by both fetchers. Release pages answer 403 to Go's default agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Plain fetches pages with a single HTTP GET. It does not run scripts and does not wait for elements.
type Plain struct {
	client    *http.Client
	userAgent string
}

// NewPlain creates a Plain fetcher with a 30 seconds timeout.
func NewPlain() *Plain {
	return &Plain{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
	}
}

// WithClient replaces the HTTP client.
func (p *Plain) WithClient(c *http.Client) *Plain {
	p.client = c
	return p
}

// Fetch returns the body of url. Any status other than 200 is an error. ready is ignored.
func (p *Plain) Fetch(ctx context.Context, url, _ string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Join(errNewRequest, err)
	}
	req.Header.Set("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("user-agent", p.userAgent)

	res, err := p.client.Do(req)
	if err != nil {
		return "", errors.Join(errDoRequest, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			slog.Default().Warn("[fetcher][plain] error closing response body", "error", err)
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d, value %s", errStatusCode, res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Join(errReadBody, err)
	}

	return string(body), nil
}
