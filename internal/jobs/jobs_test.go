package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai/server/internal/search"
)

type countingSearcher struct {
	mu      sync.Mutex
	calls   int
	queries []string
	results []search.Result
	err     error
}

func (s *countingSearcher) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestCountryFor(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Bangalore":     "india",
		" London ":      "united kingdom",
		"San Francisco": "usa",
		"remote":        "worldwide",
		"Singapore":     "singapore",
		"Atlantis":      DefaultCountry,
		"":              DefaultCountry,
	}
	for loc, want := range tests {
		assert.Equal(t, want, CountryFor(loc), loc)
	}
}

func TestClampNumJobs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultNumJobs, ClampNumJobs(0))
	assert.Equal(t, DefaultNumJobs, ClampNumJobs(-3))
	assert.Equal(t, 25, ClampNumJobs(25))
	assert.Equal(t, MaxNumJobs, ClampNumJobs(500))
}

func TestFindCachesPerKey(t *testing.T) {
	t.Parallel()

	s := &countingSearcher{results: []search.Result{
		{Title: "Go Engineer", URL: "https://www.linkedin.com/jobs/view/1", Content: "Build services"},
		{Title: "Backend Dev", URL: "https://in.indeed.com/viewjob?jk=2"},
	}}
	svc := NewService(s, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	q := Query{Query: "golang", Location: "Berlin"}
	jobs, err := svc.Find(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "linkedin", jobs[0].Site)
	assert.Equal(t, "indeed", jobs[1].Site)
	assert.Equal(t, "germany", jobs[0].Country)
	assert.Contains(t, s.queries[0], "golang jobs in Berlin germany")

	_, err = svc.Find(context.Background(), Query{Query: "golang", Location: "Berlin", NumJobs: DefaultNumJobs})
	require.NoError(t, err)
	assert.Equal(t, 1, s.calls, "same clamped key should hit the cache")

	_, err = svc.Find(context.Background(), Query{Query: "golang", Location: "Berlin", NumJobs: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, s.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, s.calls, "expired entry should be refetched")
}

func TestFindDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	s := &countingSearcher{err: errors.New("upstream down")}
	svc := NewService(s, time.Minute)

	_, err := svc.Find(context.Background(), Query{Query: "go"})
	require.Error(t, err)
	_, err = svc.Find(context.Background(), Query{Query: "go"})
	require.Error(t, err)
	assert.Equal(t, 2, s.calls)
}

func TestFindWithoutSearcher(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, 0)
	assert.False(t, svc.Configured())
	_, err := svc.Find(context.Background(), Query{Query: "go"})
	require.ErrorIs(t, err, ErrNoSearcher)
}

// gatedSearcher blocks until release is closed or its context ends.
type gatedSearcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu    sync.Mutex
	calls int
}

func (s *gatedSearcher) Search(ctx context.Context, _ string, _ int) ([]search.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	s.once.Do(func() { close(s.started) })

	select {
	case <-s.release:
		return []search.Result{{Title: "SRE", URL: "https://www.linkedin.com/jobs/view/9"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestFindSharedLookupOutlivesFirstCaller(t *testing.T) {
	t.Parallel()

	s := &gatedSearcher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(s, time.Minute)
	q := Query{Query: "sre", Location: "Pune"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Find(firstCtx, q)
		firstErr <- err
	}()
	<-s.started

	type result struct {
		jobs []Job
		err  error
	}
	second := make(chan result, 1)
	go func() {
		jobs, err := svc.Find(context.Background(), q)
		second <- result{jobs, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(s.release)
	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.jobs, 1)
	assert.Equal(t, "SRE", got.jobs[0].Title)

	jobs, err := svc.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 1, s.calls, "the lookup should be shared and then cached")
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	s := &countingSearcher{results: []search.Result{{Title: "Go", URL: "https://example.com/1"}}}
	svc := NewService(s, time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Find(context.Background(), Query{Query: "old"})
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	_, err = svc.Find(context.Background(), Query{Query: "fresh"})
	require.NoError(t, err)

	assert.Equal(t, 1, svc.PurgeExpired(now.Add(30*time.Second)))
	assert.Len(t, svc.cache, 1)
	assert.Contains(t, svc.cache, Query{Query: "fresh", NumJobs: DefaultNumJobs}.CacheKey())
	assert.Equal(t, 0, svc.PurgeExpired(now.Add(30*time.Second)))

	var nilSvc *Service
	assert.Equal(t, 0, nilSvc.PurgeExpired(now))
}
