package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/ecclesia/internal/services/charset"
)

// maxBodySize caps a single downloaded document
const maxBodySize = 10 * 1024 * 1024

// HTTPPage downloads raw HTML without rendering. Static boards, notably the
// EUC-KR ones, are served this way; the bytes go through the charset
// normalizer because those servers rarely label their encoding reliably.
type HTTPPage struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration

	url  string
	body string
}

// NewHTTPPage creates an HTTP-backed page. client may be nil.
func NewHTTPPage(client *http.Client, userAgent string, timeout time.Duration) *HTTPPage {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPPage{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (p *HTTPPage) Navigate(ctx context.Context, targetURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	p.body = charset.Decode(raw, resp.Header.Get("Content-Type"))
	p.url = resp.Request.URL.String()
	return nil
}

func (p *HTTPPage) NavigationTimeout() time.Duration {
	return p.timeout
}

func (p *HTTPPage) RendersScripts() bool {
	return false
}

// WaitReady is a no-op: the document is complete once downloaded
func (p *HTTPPage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

// WaitIdle is a no-op for the same reason
func (p *HTTPPage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (p *HTTPPage) HTML(ctx context.Context) (string, error) {
	if p.url == "" {
		return "", fmt.Errorf("no document loaded")
	}
	return p.body, nil
}

func (p *HTTPPage) URL() string {
	return p.url
}

func (p *HTTPPage) Close() {}
