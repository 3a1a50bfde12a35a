package domains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

// ErrDomainNotFound is returned by lookups when the hostname has no active,
// verified mapping.
var ErrDomainNotFound = errors.New("domain not found")

// StoreLookup resolves hostnames against the local domain and store records.
// It is the default lookup when the platform hosts its own domain registry.
type StoreLookup struct {
	domains storage.DomainStore
	stores  storage.StoreStore
}

// NewStoreLookup creates a lookup backed by the storage layer.
func NewStoreLookup(domains storage.DomainStore, stores storage.StoreStore) *StoreLookup {
	return &StoreLookup{domains: domains, stores: stores}
}

func (l *StoreLookup) LookupDomain(ctx context.Context, hostname string) (LookupResult, error) {
	mapping, err := l.domains.GetDomain(ctx, hostname)
	if err != nil {
		return LookupResult{}, err
	}
	if !mapping.Resolvable() {
		return LookupResult{}, fmt.Errorf("hostname %s: %w", hostname, ErrDomainNotFound)
	}

	st, err := l.stores.GetStore(ctx, mapping.StoreID)
	if err != nil {
		return LookupResult{}, err
	}
	if !st.Active {
		return LookupResult{}, fmt.Errorf("store %s inactive: %w", st.ID, ErrDomainNotFound)
	}

	return LookupResult{StoreSlug: st.Slug, PrimaryPageSlug: st.PrimaryPageSlug}, nil
}

// HTTPLookup queries an external domain-lookup service. The endpoint receives
// the bare hostname as a query parameter and answers with a JSON body in the
// LookupResult shape; 404 means no mapping.
type HTTPLookup struct {
	client   *http.Client
	endpoint string
	apiKey   string
	log      *logging.Logger
}

// NewHTTPLookup creates a lookup client for the given endpoint.
func NewHTTPLookup(client *http.Client, endpoint, apiKey string, log *logging.Logger) (*HTTPLookup, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("lookup endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid lookup endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = logging.NewDefault("domain-lookup")
	}
	return &HTTPLookup{client: client, endpoint: endpoint, apiKey: apiKey, log: log}, nil
}

func (l *HTTPLookup) LookupDomain(ctx context.Context, hostname string) (LookupResult, error) {
	target, err := url.Parse(l.endpoint)
	if err != nil {
		return LookupResult{}, err
	}
	query := target.Query()
	query.Set("hostname", hostname)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return LookupResult{}, err
	}
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return LookupResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return LookupResult{}, fmt.Errorf("hostname %s: %w", hostname, ErrDomainNotFound)
	case resp.StatusCode != http.StatusOK:
		return LookupResult{}, fmt.Errorf("domain lookup returned status %d", resp.StatusCode)
	}

	var result LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return LookupResult{}, fmt.Errorf("decode lookup response: %w", err)
	}
	if strings.TrimSpace(result.StoreSlug) == "" {
		return LookupResult{}, fmt.Errorf("hostname %s: %w", hostname, ErrDomainNotFound)
	}
	return result, nil
}
