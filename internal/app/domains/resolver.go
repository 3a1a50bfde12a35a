// Package domains classifies incoming hostnames as the platform's own
// domains, verified tenant custom domains, or unknown, with bounded-staleness
// caching so a lookup round-trip is not paid on every request.
package domains

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/metrics"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

// DefaultTTL bounds how long a cached classification, including a cached
// not-found, stays valid.
const DefaultTTL = 60 * time.Second

// Class is the outcome of a hostname classification.
type Class int

const (
	// Platform means the hostname is one of the operator's own domains.
	Platform Class = iota
	// Tenant means the hostname is a verified custom domain of a store.
	Tenant
	// NotFound covers unknown hostnames and every lookup failure.
	NotFound
)

// Resolution is the result of classifying one hostname.
type Resolution struct {
	Class           Class
	StoreSlug       string
	PrimaryPageSlug string
}

// Lookup answers which store owns a custom hostname. Implementations must
// return ErrDomainNotFound (or any error) when the hostname has no active,
// verified mapping; the resolver folds every failure into NotFound.
type Lookup interface {
	LookupDomain(ctx context.Context, hostname string) (LookupResult, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, hostname string) (LookupResult, error)

func (f LookupFunc) LookupDomain(ctx context.Context, hostname string) (LookupResult, error) {
	return f(ctx, hostname)
}

// LookupResult carries the owning store of a verified custom domain.
type LookupResult struct {
	StoreSlug       string `json:"store_slug"`
	PrimaryPageSlug string `json:"primary_page_slug,omitempty"`
}

// cacheEntry pairs a resolution with its expiry. Entries are immutable: a
// refresh replaces the whole value under the map key, never mutates in place,
// so concurrent misses for the same hostname race harmlessly.
type cacheEntry struct {
	resolution Resolution
	expiresAt  time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Resolver classifies hostnames with a TTL cache in front of the lookup
// collaborator.
type Resolver struct {
	baseDomains []string
	lookup      Lookup
	ttl         time.Duration
	log         *logging.Logger
	now         func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a resolver for the given platform base domains.
func NewResolver(baseDomains []string, lookup Lookup, log *logging.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = logging.NewDefault("domain-resolver")
	}

	normalized := make([]string, 0, len(baseDomains))
	for _, d := range baseDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	r := &Resolver{
		baseDomains: normalized,
		lookup:      lookup,
		ttl:         DefaultTTL,
		log:         log,
		now:         time.Now,
		cache:       make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify resolves an incoming hostname to Platform, Tenant or NotFound.
// It never returns an error: transport failures, timeouts and missing
// mappings all classify as NotFound, and the negative result is cached for
// the full TTL to bound retry storms against a broken domain.
func (r *Resolver) Classify(ctx context.Context, hostname string) Resolution {
	host := NormalizeHost(hostname)
	if host == "" {
		return Resolution{Class: NotFound}
	}

	if r.isPlatformDomain(host) {
		return Resolution{Class: Platform}
	}

	now := r.now()
	if entry, ok := r.cached(host); ok && !entry.expired(now) {
		metrics.RecordDomainCacheHit()
		return entry.resolution
	}
	metrics.RecordDomainCacheMiss()

	resolution := r.resolve(ctx, host)
	r.store(host, cacheEntry{resolution: resolution, expiresAt: now.Add(r.ttl)})
	return resolution
}

func (r *Resolver) resolve(ctx context.Context, host string) Resolution {
	if r.lookup == nil {
		return Resolution{Class: NotFound}
	}

	result, err := r.lookup.LookupDomain(ctx, host)
	if err != nil {
		metrics.RecordDomainLookup("miss")
		r.log.WithContext(ctx).WithError(err).WithField("hostname", host).Debug("domain lookup failed")
		return Resolution{Class: NotFound}
	}
	if strings.TrimSpace(result.StoreSlug) == "" {
		metrics.RecordDomainLookup("miss")
		return Resolution{Class: NotFound}
	}

	metrics.RecordDomainLookup("hit")
	return Resolution{
		Class:           Tenant,
		StoreSlug:       result.StoreSlug,
		PrimaryPageSlug: result.PrimaryPageSlug,
	}
}

func (r *Resolver) isPlatformDomain(host string) bool {
	for _, base := range r.baseDomains {
		if host == base || strings.HasSuffix(host, "."+base) {
			return true
		}
	}
	return false
}

func (r *Resolver) cached(host string) (cacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[host]
	return entry, ok
}

func (r *Resolver) store(host string, entry cacheEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[host] = entry
}

// Invalidate drops the cached classification for a hostname, used after a
// domain is attached, verified or detached so the change takes effect before
// the TTL elapses.
func (r *Resolver) Invalidate(hostname string) {
	host := NormalizeHost(hostname)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, host)
}

// Sweep removes expired entries. Called periodically by the cache janitor;
// correctness does not depend on it since Classify checks expiry itself.
func (r *Resolver) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for host, entry := range r.cache {
		if entry.expired(now) {
			delete(r.cache, host)
			removed++
		}
	}
	return removed
}

// NormalizeHost lowercases a hostname and strips any port suffix.
func NormalizeHost(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
