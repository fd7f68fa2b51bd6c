package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/metrics"
	"github.com/ternarybob/ecclesia/internal/models"
	"github.com/ternarybob/ecclesia/internal/services/sources"
	"github.com/ternarybob/ecclesia/internal/storage/badger"
)

const koreanBody = "서울대교구 청년 대림 피정이 12월 6일 명동성당에서 열립니다. 많은 참여 바랍니다."

type fakeLinks struct {
	links map[string][]string
}

func (f *fakeLinks) ExtractLinks(ctx context.Context, src models.Source) []string {
	return f.links[src.Name]
}

type fakeContent struct {
	mu        sync.Mutex
	calls     []string
	text      map[string]string
	errs      map[string]error
	redirects map[string]string
}

func (f *fakeContent) ExtractText(ctx context.Context, url string, src *models.Source) (*models.ExtractedContent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	text, ok := f.text[url]
	if !ok {
		text = koreanBody + " " + url
	}
	origin := url
	if target, ok := f.redirects[url]; ok {
		origin = target
	}
	return &models.ExtractedContent{OriginURL: origin, Text: text}, nil
}

// fakeExtractor titles each event after the last path segment of its text
type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	skip  map[string]bool
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (*models.StructuredExtraction, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	key := text[strings.LastIndex(text, " ")+1:]
	if f.skip[key] {
		return &models.StructuredExtraction{Skip: true}, nil
	}
	return &models.StructuredExtraction{
		Title:      "피정 " + key,
		Date:       "2025-12-06T10:00:00",
		Location:   "명동성당",
		Summary:    "청년 피정",
		ThemeColor: "#2A9D8F",
	}, nil
}

type harness struct {
	service *Service
	storage interfaces.EventStorage
	content *fakeContent
	links   *fakeLinks
	ext     *fakeExtractor
	reg     *prometheus.Registry
	sleeps  []time.Duration
}

func newHarness(t *testing.T, srcs ...models.Source) *harness {
	t.Helper()
	logger := arbor.NewLogger()

	db, err := badger.NewBadgerDB(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "events")})
	require.NoError(t, err)
	storage := badger.NewEventStorage(db, logger)
	t.Cleanup(func() { _ = storage.Close() })

	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	h := &harness{
		storage: storage,
		content: &fakeContent{text: map[string]string{}, errs: map[string]error{}, redirects: map[string]string{}},
		links:   &fakeLinks{links: map[string][]string{}},
		ext:     &fakeExtractor{skip: map[string]bool{}},
		reg:     prometheus.NewRegistry(),
	}

	h.service = NewService(Config{
		ItemDelay:        time.Second,
		SourceDelay:      2 * time.Second,
		MinHangulDensity: 0.05,
		MinHangulLetters: 10,
		Location:         loc,
	}, Deps{
		Sources:   sources.NewRegistry(srcs...),
		Links:     h.links,
		Content:   h.content,
		Extractor: h.ext,
		Storage:   storage,
		Metrics:   metrics.NewMetrics(h.reg),
	}, logger)

	var mu sync.Mutex
	h.service.sleep = func(ctx context.Context, d time.Duration) bool {
		mu.Lock()
		h.sleeps = append(h.sleeps, d)
		mu.Unlock()
		return ctx.Err() == nil
	}
	return h
}

func boardSource(name, host string) models.Source {
	return models.Source{
		Name:          name,
		ListingURL:    "https://" + host + "/board",
		LinkPredicate: func(u string) bool { return strings.Contains(u, host) },
		MaxItems:      10,
	}
}

func TestSweep_CreatesThenIsIdempotent(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"), boardSource("b", "b.kr"))
	h.links.links["a"] = []string{"https://a.kr/view/1", "https://a.kr/view/2"}
	h.links.links["b"] = []string{"https://b.kr/view/1"}
	ctx := context.Background()

	stats, err := h.service.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 3, stats.Discovered)
	assert.Equal(t, 3, stats.Created)

	count, err := h.storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	calls := len(h.content.calls)
	stats, err = h.service.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 3, stats.Duplicates)
	assert.Len(t, h.content.calls, calls, "known URLs are not fetched again")

	count, err = h.storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Equal(t, float64(2), testutil.ToFloat64(h.service.metrics.ItemsTotal.WithLabelValues("a", metrics.OutcomeDuplicate)))
	assert.Equal(t, float64(2), testutil.ToFloat64(h.service.metrics.ItemsTotal.WithLabelValues("a", metrics.OutcomeCreated)))
}

func TestSweep_RedirectedLinkSkipsModelOnRecrawl(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	h.links.links["a"] = []string{"https://a.kr/go?id=7"}
	h.content.redirects["https://a.kr/go?id=7"] = "https://a.kr/view/7"
	ctx := context.Background()

	stats, err := h.service.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, h.ext.calls)

	_, err = h.storage.FindByOriginURL(ctx, "https://a.kr/view/7")
	require.NoError(t, err)

	stats, err = h.service.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, h.ext.calls, "the final URL is known before extraction")
}

func TestSweep_PacesItemsAndSources(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"), boardSource("b", "b.kr"))
	h.links.links["a"] = []string{"https://a.kr/view/1", "https://a.kr/view/2"}
	h.links.links["b"] = []string{"https://b.kr/view/1"}

	_, err := h.service.Sweep(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.sleeps)
}

func TestSweep_CountsSkipsAndFailuresWithoutStopping(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	h.links.links["a"] = []string{
		"https://a.kr/view/1",
		"https://a.kr/view/2",
		"https://a.kr/view/3",
		"https://a.kr/view/4",
		"https://a.kr/view/5",
	}
	h.ext.skip["https://a.kr/view/1"] = true
	h.content.text["https://a.kr/view/2"] = "Sunday bulletin in English only, no Korean text here at all"
	h.content.errs["https://a.kr/view/3"] = fmt.Errorf("%w: %w: timeout", models.ErrContentExtraction, models.ErrTransientNetwork)
	h.content.errs["https://a.kr/view/4"] = fmt.Errorf("%w: empty body", models.ErrContentExtraction)

	stats, err := h.service.Sweep(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Discovered)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.service.metrics.ItemsTotal.WithLabelValues("a", metrics.OutcomeFailed)))
	assert.Equal(t, float64(3), testutil.ToFloat64(h.service.metrics.ItemsTotal.WithLabelValues("a", metrics.OutcomeSkipped)))
}

func TestSweep_ExtractorUnavailableContinues(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"), boardSource("b", "b.kr"))
	h.links.links["a"] = []string{"https://a.kr/view/1"}
	h.links.links["b"] = []string{"https://b.kr/view/1"}
	h.ext.err = fmt.Errorf("%w: no api key", models.ErrAIConfiguration)

	stats, err := h.service.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 0, stats.Created)
	assert.Len(t, h.content.calls, 2)
}

func TestSweep_DistinctURLsAreNotMergedByTitle(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	// Both pages yield the same title and date
	h.links.links["a"] = []string{"https://a.kr/view/1", "https://a.kr/view/1?ref=list"}
	h.content.text["https://a.kr/view/1?ref=list"] = koreanBody + " https://a.kr/view/1"

	stats, err := h.service.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Duplicates)
}

func TestSweep_SkipClassifyUsesSourceCategory(t *testing.T) {
	src := boardSource("retreat", "r.kr")
	src.SkipClassify = true
	src.DefaultCategory = models.CategoryRetreat
	h := newHarness(t, src)
	h.links.links["retreat"] = []string{"https://r.kr/view/1"}

	_, err := h.service.Sweep(context.Background(), 0)
	require.NoError(t, err)

	record, err := h.storage.FindByOriginURL(context.Background(), "https://r.kr/view/1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryRetreat, record.Category)
	assert.Equal(t, "retreat", record.SourceName)
	require.NotNil(t, record.Location)
	assert.Equal(t, "명동성당", *record.Location)
	require.NotNil(t, record.Date)
	assert.Equal(t, 6, record.Date.Day())
}

func TestSweep_CancelledStopsEarly(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	h.links.links["a"] = []string{"https://a.kr/view/1", "https://a.kr/view/2"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.service.Sweep(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestOne_AcceptsAndStores(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	ctx := context.Background()

	ack := h.service.IngestOne(ctx, "https://a.kr/view/9")
	assert.True(t, ack.Accepted)
	assert.NotEmpty(t, ack.TaskID)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, h.service.Wait(waitCtx))

	record, err := h.storage.FindByOriginURL(ctx, "https://a.kr/view/9")
	require.NoError(t, err)
	assert.Equal(t, "a", record.SourceName)

	task, ok := h.service.Tasks().Get(ack.TaskID)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCompleted, task.Status())

	// Second trigger is accepted but stores nothing new
	ack = h.service.IngestOne(ctx, "https://a.kr/view/9")
	assert.True(t, ack.Accepted)
	require.NoError(t, h.service.Wait(waitCtx))

	count, err := h.storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestOne_RejectsEmptyURL(t *testing.T) {
	h := newHarness(t)
	ack := h.service.IngestOne(context.Background(), "")
	assert.False(t, ack.Accepted)
}

func TestIngestAll_ReturnsBeforeWorkFinishes(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	h.links.links["a"] = []string{"https://a.kr/view/1"}

	release := make(chan struct{})
	h.service.sleep = func(ctx context.Context, d time.Duration) bool { return true }
	h.service.links = blockingLinks{inner: h.links, release: release}

	ack := h.service.IngestAll(context.Background(), 0)
	require.True(t, ack.Accepted)

	count, err := h.storage.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.service.Wait(ctx))

	count, err = h.storage.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type blockingLinks struct {
	inner   LinkDiscoverer
	release chan struct{}
}

func (b blockingLinks) ExtractLinks(ctx context.Context, src models.Source) []string {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil
	}
	return b.inner.ExtractLinks(ctx, src)
}

func TestScrapeOnDemand_DoesNotPersist(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result, err := h.service.ScrapeOnDemand(ctx, "https://x.kr/view/1")
	require.NoError(t, err)
	assert.Equal(t, "피정 https://x.kr/view/1", result.Title)

	count, err := h.storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestScrapeOnDemand_PropagatesErrors(t *testing.T) {
	h := newHarness(t)
	h.content.errs["https://x.kr/1"] = models.ErrContentExtraction

	_, err := h.service.ScrapeOnDemand(context.Background(), "https://x.kr/1")
	assert.True(t, errors.Is(err, models.ErrContentExtraction))
}

func TestShutdown_CancelsRunningSweep(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	h.service.links = blockingLinks{inner: h.links, release: make(chan struct{})}

	ack := h.service.IngestAll(context.Background(), 0)
	require.True(t, ack.Accepted)

	require.NoError(t, h.service.Shutdown(5*time.Second))

	task, ok := h.service.Tasks().Get(ack.TaskID)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCancelled, task.Status())
}

func TestIngest_RejectedAfterShutdown(t *testing.T) {
	h := newHarness(t, boardSource("a", "a.kr"))
	require.NoError(t, h.service.Shutdown(time.Second))

	assert.False(t, h.service.IngestOne(context.Background(), "https://a.kr/view/1").Accepted)
	assert.False(t, h.service.IngestAll(context.Background(), 0).Accepted)
	assert.Empty(t, h.content.calls)
}
