package domains

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingLookup struct {
	mu      sync.Mutex
	calls   int
	results map[string]LookupResult
	err     error
}

func (c *countingLookup) LookupDomain(_ context.Context, hostname string) (LookupResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return LookupResult{}, c.err
	}
	result, ok := c.results[hostname]
	if !ok {
		return LookupResult{}, ErrDomainNotFound
	}
	return result, nil
}

func (c *countingLookup) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestClassifyPlatformDomains(t *testing.T) {
	lookup := &countingLookup{}
	r := NewResolver([]string{"pixecom.app", "pixecom.dev"}, lookup, nil)

	for _, host := range []string{"pixecom.app", "PIXECOM.APP", "acme.pixecom.app", "deep.sub.pixecom.dev", "pixecom.app:8080"} {
		res := r.Classify(context.Background(), host)
		if res.Class != Platform {
			t.Errorf("Classify(%q).Class = %v, want Platform", host, res.Class)
		}
	}

	if lookup.callCount() != 0 {
		t.Errorf("platform hosts hit the lookup %d times, want 0", lookup.callCount())
	}
}

func TestClassifyTenantDomain(t *testing.T) {
	lookup := &countingLookup{results: map[string]LookupResult{
		"shop.acme.com": {StoreSlug: "acme", PrimaryPageSlug: "home"},
	}}
	r := NewResolver([]string{"pixecom.app"}, lookup, nil)

	res := r.Classify(context.Background(), "Shop.Acme.com:443")
	if res.Class != Tenant {
		t.Fatalf("Class = %v, want Tenant", res.Class)
	}
	if res.StoreSlug != "acme" || res.PrimaryPageSlug != "home" {
		t.Errorf("resolution = %+v, want acme/home", res)
	}
}

func TestClassifyCachesWithinTTL(t *testing.T) {
	lookup := &countingLookup{results: map[string]LookupResult{
		"shop.acme.com": {StoreSlug: "acme", PrimaryPageSlug: "home"},
	}}
	now := time.Now()
	clock := func() time.Time { return now }
	r := NewResolver(nil, lookup, nil, WithClock(clock))

	r.Classify(context.Background(), "shop.acme.com")
	r.Classify(context.Background(), "shop.acme.com")
	if lookup.callCount() != 1 {
		t.Fatalf("lookup calls = %d, want 1", lookup.callCount())
	}

	now = now.Add(DefaultTTL + time.Second)
	r.Classify(context.Background(), "shop.acme.com")
	if lookup.callCount() != 2 {
		t.Errorf("lookup calls after expiry = %d, want 2", lookup.callCount())
	}
}

func TestClassifyCachesLookupFailure(t *testing.T) {
	lookup := &countingLookup{err: errors.New("registry unreachable")}
	now := time.Now()
	r := NewResolver(nil, lookup, nil, WithClock(func() time.Time { return now }))

	res := r.Classify(context.Background(), "shop.acme.com")
	if res.Class != NotFound {
		t.Fatalf("Class = %v, want NotFound", res.Class)
	}

	r.Classify(context.Background(), "shop.acme.com")
	if lookup.callCount() != 1 {
		t.Errorf("failed lookup retried within TTL: calls = %d, want 1", lookup.callCount())
	}
}

func TestClassifyUnknownHostname(t *testing.T) {
	lookup := &countingLookup{}
	r := NewResolver([]string{"pixecom.app"}, lookup, nil)

	if res := r.Classify(context.Background(), "stranger.example.org"); res.Class != NotFound {
		t.Errorf("Class = %v, want NotFound", res.Class)
	}
	if res := r.Classify(context.Background(), ""); res.Class != NotFound {
		t.Errorf("empty hostname Class = %v, want NotFound", res.Class)
	}
}

func TestInvalidateForcesRelookup(t *testing.T) {
	lookup := &countingLookup{results: map[string]LookupResult{
		"shop.acme.com": {StoreSlug: "acme", PrimaryPageSlug: "home"},
	}}
	r := NewResolver(nil, lookup, nil)

	r.Classify(context.Background(), "shop.acme.com")
	r.Invalidate("Shop.Acme.com")
	r.Classify(context.Background(), "shop.acme.com")

	if lookup.callCount() != 2 {
		t.Errorf("lookup calls = %d, want 2 after invalidation", lookup.callCount())
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	lookup := &countingLookup{results: map[string]LookupResult{
		"old.example.com": {StoreSlug: "old"},
		"new.example.com": {StoreSlug: "new"},
	}}
	now := time.Now()
	clock := func() time.Time { return now }
	r := NewResolver(nil, lookup, nil, WithClock(clock))

	r.Classify(context.Background(), "old.example.com")
	now = now.Add(DefaultTTL / 2)
	r.Classify(context.Background(), "new.example.com")

	now = now.Add(DefaultTTL/2 + time.Second)
	if removed := r.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d entries, want 1", removed)
	}
}

func TestClassifyConcurrentMissesConverge(t *testing.T) {
	var calls int64
	lookup := LookupFunc(func(_ context.Context, hostname string) (LookupResult, error) {
		atomic.AddInt64(&calls, 1)
		return LookupResult{StoreSlug: "acme", PrimaryPageSlug: "home"}, nil
	})
	r := NewResolver(nil, lookup, nil)

	var wg sync.WaitGroup
	results := make([]Resolution, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Classify(context.Background(), "shop.acme.com")
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res.Class != Tenant || res.StoreSlug != "acme" {
			t.Fatalf("goroutine %d got %+v, want Tenant/acme", i, res)
		}
	}

	// Concurrent misses may each call the lookup, but afterwards the cache
	// serves a single converged entry.
	before := atomic.LoadInt64(&calls)
	r.Classify(context.Background(), "shop.acme.com")
	if atomic.LoadInt64(&calls) != before {
		t.Errorf("cache did not converge after concurrent misses")
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shop.Acme.COM", "shop.acme.com"},
		{"shop.acme.com:8443", "shop.acme.com"},
		{" shop.acme.com. ", "shop.acme.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHost(tt.in); got != tt.want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
