// Package stores manages merchant tenant records and their custom-domain
// mappings.
package stores

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/store"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// DefaultPrimaryPageSlug is used when a store has no primary page configured.
const DefaultPrimaryPageSlug = "home"

// Invalidator is notified when a domain mapping changes so cached host
// classifications do not outlive the mapping. The domain resolver satisfies
// it.
type Invalidator interface {
	Invalidate(hostname string)
}

// Service manages tenant stores and domain mappings.
type Service struct {
	stores      storage.StoreStore
	domains     storage.DomainStore
	invalidator Invalidator
	log         *logging.Logger
}

// New constructs a store service.
func New(stores storage.StoreStore, domains storage.DomainStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("stores")
	}
	return &Service{
		stores:  stores,
		domains: domains,
		log:     log,
	}
}

// AttachInvalidator wires the resolver cache invalidation hook. Call before
// serving traffic.
func (s *Service) AttachInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// Create registers a new store. The slug must be lowercase URL-safe and
// unique; the primary page slug falls back to the configured default.
func (s *Service) Create(ctx context.Context, slug, name, primaryPageSlug string, metadata map[string]string) (store.Store, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	name = strings.TrimSpace(name)
	primaryPageSlug = strings.TrimSpace(primaryPageSlug)

	if !slugPattern.MatchString(slug) {
		return store.Store{}, fmt.Errorf("slug must be lowercase alphanumeric with hyphens, got %q", slug)
	}
	if name == "" {
		name = slug
	}
	if primaryPageSlug == "" {
		primaryPageSlug = DefaultPrimaryPageSlug
	}

	st := store.Store{
		Slug:            slug,
		Name:            name,
		PrimaryPageSlug: primaryPageSlug,
		Active:          true,
		Metadata:        metadata,
	}
	st, err := s.stores.CreateStore(ctx, st)
	if err != nil {
		return store.Store{}, err
	}
	s.log.WithField("store_id", st.ID).
		WithField("slug", st.Slug).
		Info("store created")
	return st, nil
}

// Update changes mutable fields on a store.
func (s *Service) Update(ctx context.Context, id string, name, primaryPageSlug *string, active *bool) (store.Store, error) {
	st, err := s.stores.GetStore(ctx, id)
	if err != nil {
		return store.Store{}, err
	}

	if name != nil {
		if trimmed := strings.TrimSpace(*name); trimmed != "" {
			st.Name = trimmed
		} else {
			return store.Store{}, fmt.Errorf("name cannot be empty")
		}
	}
	if primaryPageSlug != nil {
		if trimmed := strings.TrimSpace(*primaryPageSlug); trimmed != "" {
			st.PrimaryPageSlug = trimmed
		} else {
			st.PrimaryPageSlug = DefaultPrimaryPageSlug
		}
	}
	if active != nil {
		st.Active = *active
	}

	st, err = s.stores.UpdateStore(ctx, st)
	if err != nil {
		return store.Store{}, err
	}

	// An active flip changes how every attached domain resolves.
	if active != nil {
		s.invalidateStoreDomains(ctx, st.ID)
	}

	s.log.WithField("store_id", st.ID).Info("store updated")
	return st, nil
}

// Get retrieves a store by id.
func (s *Service) Get(ctx context.Context, id string) (store.Store, error) {
	return s.stores.GetStore(ctx, id)
}

// GetBySlug retrieves a store by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (store.Store, error) {
	return s.stores.GetStoreBySlug(ctx, slug)
}

// List returns all stores.
func (s *Service) List(ctx context.Context) ([]store.Store, error) {
	return s.stores.ListStores(ctx)
}

// Delete removes a store, its pages and its domain mappings.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.invalidateStoreDomains(ctx, id)
	return s.stores.DeleteStore(ctx, id)
}

// AttachDomain creates a pending mapping from a custom hostname to the
// store. Verification is performed by an external collaborator; until the
// mapping is marked verified it never resolves.
func (s *Service) AttachDomain(ctx context.Context, storeID, hostname, method, expectedTarget string) (store.DomainMapping, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return store.DomainMapping{}, fmt.Errorf("hostname is required")
	}
	if strings.Contains(hostname, "/") || strings.Contains(hostname, ":") {
		return store.DomainMapping{}, fmt.Errorf("hostname %q must be a bare domain", hostname)
	}

	if _, err := s.stores.GetStore(ctx, storeID); err != nil {
		return store.DomainMapping{}, fmt.Errorf("store validation failed: %w", err)
	}

	mapping := store.DomainMapping{
		Hostname:           hostname,
		StoreID:            storeID,
		Verification:       store.VerificationPending,
		VerificationMethod: method,
		ExpectedTarget:     expectedTarget,
	}
	mapping, err := s.domains.CreateDomain(ctx, mapping)
	if err != nil {
		return store.DomainMapping{}, err
	}

	s.invalidate(mapping.Hostname)
	s.log.WithField("store_id", storeID).
		WithField("hostname", hostname).
		Info("domain attached")
	return mapping, nil
}

// MarkDomainVerified flips a mapping to verified. Called by the verification
// collaborator once DNS checks pass.
func (s *Service) MarkDomainVerified(ctx context.Context, hostname string) (store.DomainMapping, error) {
	mapping, err := s.domains.GetDomain(ctx, hostname)
	if err != nil {
		return store.DomainMapping{}, err
	}
	if mapping.Verification == store.VerificationVerified {
		return mapping, nil
	}

	mapping.Verification = store.VerificationVerified
	mapping, err = s.domains.UpdateDomain(ctx, mapping)
	if err != nil {
		return store.DomainMapping{}, err
	}

	s.invalidate(mapping.Hostname)
	s.log.WithField("hostname", mapping.Hostname).
		WithField("store_id", mapping.StoreID).
		Info("domain verified")
	return mapping, nil
}

// DetachDomain removes a mapping.
func (s *Service) DetachDomain(ctx context.Context, hostname string) error {
	if err := s.domains.DeleteDomain(ctx, hostname); err != nil {
		return err
	}
	s.invalidate(hostname)
	s.log.WithField("hostname", hostname).Info("domain detached")
	return nil
}

// ListDomains returns the mappings for a store.
func (s *Service) ListDomains(ctx context.Context, storeID string) ([]store.DomainMapping, error) {
	return s.domains.ListDomains(ctx, storeID)
}

func (s *Service) invalidate(hostname string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(hostname)
	}
}

func (s *Service) invalidateStoreDomains(ctx context.Context, storeID string) {
	if s.invalidator == nil {
		return
	}
	mappings, err := s.domains.ListDomains(ctx, storeID)
	if err != nil {
		s.log.WithError(err).WithField("store_id", storeID).Warn("list domains for invalidation")
		return
	}
	for _, m := range mappings {
		s.invalidator.Invalidate(m.Hostname)
	}
}
