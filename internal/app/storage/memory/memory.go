package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/store"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	stores       map[string]store.Store
	storesBySlug map[string]string
	pages        map[string]section.Page
	sections     map[string][]section.Section
	domains      map[string]store.DomainMapping
}

var _ storage.StoreStore = (*Store)(nil)
var _ storage.PageStore = (*Store)(nil)
var _ storage.DomainStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		stores:       make(map[string]store.Store),
		storesBySlug: make(map[string]string),
		pages:        make(map[string]section.Page),
		sections:     make(map[string][]section.Section),
		domains:      make(map[string]store.DomainMapping),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// StoreStore implementation ---------------------------------------------------

func (s *Store) CreateStore(_ context.Context, st store.Store) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = s.nextIDLocked()
	} else if _, exists := s.stores[st.ID]; exists {
		return store.Store{}, fmt.Errorf("store %s already exists", st.ID)
	}

	slugKey := strings.ToLower(strings.TrimSpace(st.Slug))
	if slugKey == "" {
		return store.Store{}, fmt.Errorf("store slug is required")
	}
	if existing, exists := s.storesBySlug[slugKey]; exists {
		return store.Store{}, fmt.Errorf("slug %s already assigned to store %s", st.Slug, existing)
	}

	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	st.Metadata = cloneMap(st.Metadata)

	s.stores[st.ID] = st
	s.storesBySlug[slugKey] = st.ID
	return cloneStore(st), nil
}

func (s *Store) UpdateStore(_ context.Context, st store.Store) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.stores[st.ID]
	if !ok {
		return store.Store{}, fmt.Errorf("store %s: %w", st.ID, storage.ErrNotFound)
	}

	oldKey := strings.ToLower(original.Slug)
	newKey := strings.ToLower(strings.TrimSpace(st.Slug))
	if newKey == "" {
		return store.Store{}, fmt.Errorf("store slug is required")
	}
	if existing, exists := s.storesBySlug[newKey]; exists && existing != st.ID {
		return store.Store{}, fmt.Errorf("slug %s already assigned to store %s", st.Slug, existing)
	}

	st.CreatedAt = original.CreatedAt
	st.UpdatedAt = time.Now().UTC()
	st.Metadata = cloneMap(st.Metadata)

	s.stores[st.ID] = st
	if oldKey != newKey {
		delete(s.storesBySlug, oldKey)
	}
	s.storesBySlug[newKey] = st.ID
	return cloneStore(st), nil
}

func (s *Store) GetStore(_ context.Context, id string) (store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return store.Store{}, fmt.Errorf("store %s: %w", id, storage.ErrNotFound)
	}
	return cloneStore(st), nil
}

func (s *Store) GetStoreBySlug(_ context.Context, slug string) (store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.storesBySlug[strings.ToLower(strings.TrimSpace(slug))]; ok {
		return cloneStore(s.stores[id]), nil
	}
	return store.Store{}, fmt.Errorf("store slug %s: %w", slug, storage.ErrNotFound)
}

func (s *Store) ListStores(_ context.Context) ([]store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Store, 0, len(s.stores))
	for _, st := range s.stores {
		result = append(result, cloneStore(st))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteStore(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[id]
	if !ok {
		return fmt.Errorf("store %s: %w", id, storage.ErrNotFound)
	}
	delete(s.stores, id)
	delete(s.storesBySlug, strings.ToLower(st.Slug))

	for pageID, pg := range s.pages {
		if pg.StoreID == id {
			delete(s.pages, pageID)
			delete(s.sections, pageID)
		}
	}
	for hostname, m := range s.domains {
		if m.StoreID == id {
			delete(s.domains, hostname)
		}
	}
	return nil
}

// PageStore implementation ----------------------------------------------------

func (s *Store) CreatePage(_ context.Context, pg section.Page) (section.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pg.ID == "" {
		pg.ID = s.nextIDLocked()
	} else if _, exists := s.pages[pg.ID]; exists {
		return section.Page{}, fmt.Errorf("page %s already exists", pg.ID)
	}

	for _, existing := range s.pages {
		if existing.StoreID == pg.StoreID && strings.EqualFold(existing.Slug, pg.Slug) {
			return section.Page{}, fmt.Errorf("page slug %s already exists in store %s", pg.Slug, pg.StoreID)
		}
	}

	now := time.Now().UTC()
	pg.CreatedAt = now
	pg.UpdatedAt = now

	s.pages[pg.ID] = pg
	return pg, nil
}

func (s *Store) UpdatePage(_ context.Context, pg section.Page) (section.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.pages[pg.ID]
	if !ok {
		return section.Page{}, fmt.Errorf("page %s: %w", pg.ID, storage.ErrNotFound)
	}

	pg.StoreID = original.StoreID
	pg.CreatedAt = original.CreatedAt
	pg.UpdatedAt = time.Now().UTC()

	s.pages[pg.ID] = pg
	return pg, nil
}

func (s *Store) GetPage(_ context.Context, id string) (section.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pg, ok := s.pages[id]
	if !ok {
		return section.Page{}, fmt.Errorf("page %s: %w", id, storage.ErrNotFound)
	}
	return pg, nil
}

func (s *Store) GetPageBySlug(_ context.Context, storeID, slug string) (section.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pg := range s.pages {
		if pg.StoreID == storeID && strings.EqualFold(pg.Slug, slug) {
			return pg, nil
		}
	}
	return section.Page{}, fmt.Errorf("page %s/%s: %w", storeID, slug, storage.ErrNotFound)
}

func (s *Store) ListPages(_ context.Context, storeID string) ([]section.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]section.Page, 0)
	for _, pg := range s.pages {
		if storeID == "" || pg.StoreID == storeID {
			result = append(result, pg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeletePage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[id]; !ok {
		return fmt.Errorf("page %s: %w", id, storage.ErrNotFound)
	}
	delete(s.pages, id)
	delete(s.sections, id)
	return nil
}

func (s *Store) ListSections(_ context.Context, pageID string) ([]section.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.pages[pageID]; !ok {
		return nil, fmt.Errorf("page %s: %w", pageID, storage.ErrNotFound)
	}
	return cloneSections(s.sections[pageID]), nil
}

func (s *Store) ReplaceSections(_ context.Context, pageID string, sections []section.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pg, ok := s.pages[pageID]
	if !ok {
		return fmt.Errorf("page %s: %w", pageID, storage.ErrNotFound)
	}

	s.sections[pageID] = cloneSections(sections)
	pg.UpdatedAt = time.Now().UTC()
	s.pages[pageID] = pg
	return nil
}

// DomainStore implementation --------------------------------------------------

func (s *Store) CreateDomain(_ context.Context, m store.DomainMapping) (store.DomainMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(m.Hostname))
	if key == "" {
		return store.DomainMapping{}, fmt.Errorf("hostname is required")
	}
	if existing, exists := s.domains[key]; exists {
		return store.DomainMapping{}, fmt.Errorf("hostname %s already mapped to store %s", m.Hostname, existing.StoreID)
	}

	now := time.Now().UTC()
	m.Hostname = key
	m.CreatedAt = now
	m.UpdatedAt = now

	s.domains[key] = m
	return m, nil
}

func (s *Store) UpdateDomain(_ context.Context, m store.DomainMapping) (store.DomainMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(m.Hostname))
	original, ok := s.domains[key]
	if !ok {
		return store.DomainMapping{}, fmt.Errorf("hostname %s: %w", m.Hostname, storage.ErrNotFound)
	}

	m.Hostname = key
	m.StoreID = original.StoreID
	m.CreatedAt = original.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	s.domains[key] = m
	return m, nil
}

func (s *Store) GetDomain(_ context.Context, hostname string) (store.DomainMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.domains[strings.ToLower(strings.TrimSpace(hostname))]
	if !ok {
		return store.DomainMapping{}, fmt.Errorf("hostname %s: %w", hostname, storage.ErrNotFound)
	}
	return m, nil
}

func (s *Store) ListDomains(_ context.Context, storeID string) ([]store.DomainMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.DomainMapping, 0)
	for _, m := range s.domains {
		if storeID == "" || m.StoreID == storeID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Hostname < result[j].Hostname })
	return result, nil
}

func (s *Store) DeleteDomain(_ context.Context, hostname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(hostname))
	if _, ok := s.domains[key]; !ok {
		return fmt.Errorf("hostname %s: %w", hostname, storage.ErrNotFound)
	}
	delete(s.domains, key)
	return nil
}

// Helpers --------------------------------------------------------------------

func cloneMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneStore(st store.Store) store.Store {
	st.Metadata = cloneMap(st.Metadata)
	return st
}

func cloneSections(src []section.Section) []section.Section {
	if src == nil {
		return nil
	}
	dst := make([]section.Section, len(src))
	for i := range src {
		dst[i] = src[i].Clone()
	}
	return dst
}
