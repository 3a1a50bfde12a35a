package storage

import (
	"context"
	"errors"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/store"
)

// ErrNotFound is returned by all stores when the requested record does not
// exist. Implementations wrap it so callers can branch with errors.Is.
var ErrNotFound = errors.New("not found")

// StoreStore persists tenant store records.
type StoreStore interface {
	CreateStore(ctx context.Context, st store.Store) (store.Store, error)
	UpdateStore(ctx context.Context, st store.Store) (store.Store, error)
	GetStore(ctx context.Context, id string) (store.Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (store.Store, error)
	ListStores(ctx context.Context) ([]store.Store, error)
	DeleteStore(ctx context.Context, id string) error
}

// PageStore persists pages and their ordered section lists. ListSections and
// ReplaceSections form the section persistence gateway consumed by the
// builder: the whole list is read and written as a unit, in position order.
type PageStore interface {
	CreatePage(ctx context.Context, pg section.Page) (section.Page, error)
	UpdatePage(ctx context.Context, pg section.Page) (section.Page, error)
	GetPage(ctx context.Context, id string) (section.Page, error)
	GetPageBySlug(ctx context.Context, storeID, slug string) (section.Page, error)
	ListPages(ctx context.Context, storeID string) ([]section.Page, error)
	DeletePage(ctx context.Context, id string) error

	ListSections(ctx context.Context, pageID string) ([]section.Section, error)
	ReplaceSections(ctx context.Context, pageID string, sections []section.Section) error
}

// DomainStore persists custom-domain mappings keyed by hostname.
type DomainStore interface {
	CreateDomain(ctx context.Context, m store.DomainMapping) (store.DomainMapping, error)
	UpdateDomain(ctx context.Context, m store.DomainMapping) (store.DomainMapping, error)
	GetDomain(ctx context.Context, hostname string) (store.DomainMapping, error)
	ListDomains(ctx context.Context, storeID string) ([]store.DomainMapping, error)
	DeleteDomain(ctx context.Context, hostname string) error
}
