package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/ecclesia/internal/models"
)

// fakePage serves canned documents keyed by URL. failures counts how many
// navigations to a URL fail before it starts succeeding (-1 fails forever).
type fakePage struct {
	mu        sync.Mutex
	docs      map[string]string
	failures  map[string]int
	visited   []string
	current   string
	scripts   bool
	readyErr  error
	idleErr   error
	waitCalls int
	closed    bool
}

func newFakePage(docs map[string]string) *fakePage {
	return &fakePage{docs: docs, failures: map[string]int{}}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	if n, ok := p.failures[url]; ok && n != 0 {
		if n > 0 {
			p.failures[url] = n - 1
		}
		return errors.New("connection reset")
	}
	if _, ok := p.docs[url]; !ok {
		return errors.New("not found")
	}
	p.current = url
	return nil
}

func (p *fakePage) NavigationTimeout() time.Duration { return time.Second }
func (p *fakePage) RendersScripts() bool             { return p.scripts }

func (p *fakePage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	p.waitCalls++
	return p.readyErr
}

func (p *fakePage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	p.waitCalls++
	return p.idleErr
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return p.docs[p.current], nil
}

func (p *fakePage) URL() string { return p.current }
func (p *fakePage) Close()      { p.closed = true }

// fakePages hands out the same page for every request
type fakePages struct {
	page  *fakePage
	modes []models.FetchMode
}

func (f *fakePages) NewPage(ctx context.Context, mode models.FetchMode) (Page, error) {
	f.modes = append(f.modes, mode)
	return f.page, nil
}

// noSleep records backoff requests without waiting
type noSleep struct {
	durations []time.Duration
}

func (s *noSleep) sleep(ctx context.Context, d time.Duration) bool {
	s.durations = append(s.durations, d)
	return ctx.Err() == nil
}
