// Package jobs looks up job listings through the web search provider and
// caches them per query.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/prepai/server/internal/search"
)

const (
	DefaultNumJobs  = 10
	MaxNumJobs      = 50
	DefaultCountry  = "india"
	DefaultCacheTTL = 5 * time.Minute

	fetchTimeout = 30 * time.Second
)

// ErrNoSearcher is returned when no search provider is configured.
var ErrNoSearcher = errors.New("job search provider not configured")

// Query is one job listing request.
type Query struct {
	Query    string
	Location string
	NumJobs  int
}

// CacheKey identifies cached listings as query:location:num_jobs.
func (q Query) CacheKey() string {
	return q.Query + ":" + q.Location + ":" + strconv.Itoa(q.NumJobs)
}

// Job is one listing.
type Job struct {
	Title       string `json:"title"`
	JobURL      string `json:"job_url"`
	Site        string `json:"site"`
	Location    string `json:"location"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

// ClampNumJobs applies the default and upper bound to a requested count.
func ClampNumJobs(n int) int {
	switch {
	case n <= 0:
		return DefaultNumJobs
	case n > MaxNumJobs:
		return MaxNumJobs
	default:
		return n
	}
}

var locationCountries = map[string]string{
	"india": "india", "in": "india", "bengaluru": "india", "bangalore": "india",
	"usa": "usa", "us": "usa", "united states": "usa", "new york": "usa", "san francisco": "usa",
	"uk": "united kingdom", "united kingdom": "united kingdom", "london": "united kingdom",
	"canada": "canada", "toronto": "canada",
	"australia": "australia", "sydney": "australia",
	"germany": "germany", "berlin": "germany",
	"france": "france", "paris": "france",
	"japan": "japan", "tokyo": "japan",
	"remote": "worldwide",
}

var knownCountries = map[string]struct{}{}

func init() {
	for _, c := range []string{
		"argentina", "australia", "austria", "bahrain", "bangladesh", "belgium", "bulgaria",
		"brazil", "canada", "chile", "china", "colombia", "costa rica", "croatia", "cyprus",
		"czech republic", "czechia", "denmark", "ecuador", "egypt", "estonia", "finland",
		"france", "germany", "greece", "hong kong", "hungary", "india", "indonesia", "ireland",
		"israel", "italy", "japan", "kuwait", "latvia", "lithuania", "luxembourg", "malaysia",
		"malta", "mexico", "morocco", "netherlands", "new zealand", "nigeria", "norway", "oman",
		"pakistan", "panama", "peru", "philippines", "poland", "portugal", "qatar", "romania",
		"saudi arabia", "singapore", "slovakia", "slovenia", "south africa", "south korea",
		"spain", "sweden", "switzerland", "taiwan", "thailand", "türkiye", "turkey", "ukraine",
		"united arab emirates", "uk", "united kingdom", "usa", "us", "united states", "uruguay",
		"venezuela", "vietnam", "usa/ca", "worldwide",
	} {
		knownCountries[c] = struct{}{}
	}
}

// CountryFor maps a free-form location to a country label. Unknown
// locations map to DefaultCountry.
func CountryFor(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if c, ok := locationCountries[loc]; ok {
		return c
	}
	if _, ok := knownCountries[loc]; ok {
		return loc
	}
	return DefaultCountry
}

type cacheEntry struct {
	jobs     []Job
	storedAt time.Time
}

// Service fetches listings and caches successful lookups for ttl.
// Failed lookups are not cached.
type Service struct {
	searcher search.Searcher
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewService creates a job service. A non-positive ttl uses DefaultCacheTTL.
func NewService(searcher search.Searcher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		searcher: searcher,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Configured reports whether a search provider is available.
func (s *Service) Configured() bool {
	return s != nil && s.searcher != nil
}

// Find returns listings for q. NumJobs is clamped before the cache lookup.
// Concurrent misses for the same key share one upstream call, which is not
// canceled when the caller that started it goes away.
func (s *Service) Find(ctx context.Context, q Query) ([]Job, error) {
	if !s.Configured() {
		return nil, ErrNoSearcher
	}
	q.NumJobs = ClampNumJobs(q.NumJobs)
	key := q.CacheKey()

	if jobs, ok := s.cached(key); ok {
		return jobs, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		if jobs, ok := s.cached(key); ok {
			return jobs, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		jobs, err := s.fetch(fetchCtx, q)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = cacheEntry{jobs: jobs, storedAt: s.now()}
		s.mu.Unlock()
		return jobs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Job), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PurgeExpired drops cache entries older than the TTL at now and returns
// how many were removed.
func (s *Service) PurgeExpired(now time.Time) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, entry := range s.cache {
		if now.Sub(entry.storedAt) >= s.ttl {
			delete(s.cache, key)
			n++
		}
	}
	return n
}

func (s *Service) cached(key string) ([]Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.storedAt) >= s.ttl {
		delete(s.cache, key)
		return nil, false
	}
	return entry.jobs, true
}

func (s *Service) fetch(ctx context.Context, q Query) ([]Job, error) {
	country := CountryFor(q.Location)
	results, err := s.searcher.Search(ctx, searchQuery(q, country), q.NumJobs)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}

	jobs := make([]Job, 0, len(results))
	for _, r := range results {
		jobs = append(jobs, Job{
			Title:       r.Title,
			JobURL:      r.URL,
			Site:        siteOf(r.URL),
			Location:    q.Location,
			Country:     country,
			Description: r.Content,
		})
	}
	return jobs, nil
}

func searchQuery(q Query, country string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Query))
	b.WriteString(" jobs")
	if loc := strings.TrimSpace(q.Location); loc != "" {
		b.WriteString(" in ")
		b.WriteString(loc)
	}
	if country != "worldwide" {
		b.WriteString(" ")
		b.WriteString(country)
	}
	b.WriteString(" site:linkedin.com/jobs OR site:indeed.com")
	return b.String()
}

func siteOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case strings.Contains(host, "linkedin."):
		return "linkedin"
	case strings.Contains(host, "indeed."):
		return "indeed"
	default:
		return host
	}
}
