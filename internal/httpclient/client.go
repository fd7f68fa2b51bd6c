package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// maxRedirects bounds redirect chains; some boards bounce through several
// session-setting pages before the article
const maxRedirects = 10

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// NewCrawlerClient creates the client used for plain HTTP page fetches. It
// keeps cookies across requests so boards that set a session cookie on the
// listing page also serve the detail pages.
func NewCrawlerClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := NewDefaultHTTPClient(timeout)
	client.Jar = jar
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("stopped after too many redirects")
		}
		return nil
	}
	return client, nil
}
