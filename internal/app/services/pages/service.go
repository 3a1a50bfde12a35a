// Package pages manages sellpages and homepages and the persistence of their
// section lists.
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/metrics"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service manages pages and their section lists.
type Service struct {
	stores storage.StoreStore
	pages  storage.PageStore
	log    *logging.Logger
}

// New constructs a page service.
func New(stores storage.StoreStore, pages storage.PageStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("pages")
	}
	return &Service{
		stores: stores,
		pages:  pages,
		log:    log,
	}
}

// Create registers a new page for a store.
func (s *Service) Create(ctx context.Context, storeID, slug, title string, kind section.Kind) (section.Page, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	title = strings.TrimSpace(title)

	if !slugPattern.MatchString(slug) {
		return section.Page{}, fmt.Errorf("slug must be lowercase alphanumeric with hyphens, got %q", slug)
	}
	switch kind {
	case section.KindSellpage, section.KindHomepage:
	default:
		return section.Page{}, fmt.Errorf("unsupported page kind %q", kind)
	}

	if s.stores != nil {
		if _, err := s.stores.GetStore(ctx, storeID); err != nil {
			return section.Page{}, fmt.Errorf("store validation failed: %w", err)
		}
	}

	pg := section.Page{
		StoreID: storeID,
		Slug:    slug,
		Kind:    kind,
		Title:   title,
	}
	pg, err := s.pages.CreatePage(ctx, pg)
	if err != nil {
		return section.Page{}, err
	}
	s.log.WithField("page_id", pg.ID).
		WithField("store_id", storeID).
		WithField("slug", pg.Slug).
		Info("page created")
	return pg, nil
}

// Update changes mutable fields on a page.
func (s *Service) Update(ctx context.Context, pageID string, slug, title *string, published *bool) (section.Page, error) {
	pg, err := s.pages.GetPage(ctx, pageID)
	if err != nil {
		return section.Page{}, err
	}

	if slug != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*slug))
		if !slugPattern.MatchString(trimmed) {
			return section.Page{}, fmt.Errorf("slug must be lowercase alphanumeric with hyphens, got %q", *slug)
		}
		pg.Slug = trimmed
	}
	if title != nil {
		pg.Title = strings.TrimSpace(*title)
	}
	if published != nil {
		pg.Published = *published
	}

	pg, err = s.pages.UpdatePage(ctx, pg)
	if err != nil {
		return section.Page{}, err
	}
	s.log.WithField("page_id", pg.ID).Info("page updated")
	return pg, nil
}

// Get retrieves a page by id.
func (s *Service) Get(ctx context.Context, pageID string) (section.Page, error) {
	return s.pages.GetPage(ctx, pageID)
}

// GetBySlug retrieves a page by store and slug.
func (s *Service) GetBySlug(ctx context.Context, storeID, slug string) (section.Page, error) {
	return s.pages.GetPageBySlug(ctx, storeID, slug)
}

// List returns the pages of a store.
func (s *Service) List(ctx context.Context, storeID string) ([]section.Page, error) {
	return s.pages.ListPages(ctx, storeID)
}

// Delete removes a page and its sections.
func (s *Service) Delete(ctx context.Context, pageID string) error {
	return s.pages.DeletePage(ctx, pageID)
}

// Sections returns the persisted, position-ordered section list of a page,
// including invisible sections; render-time filtering belongs to the
// renderer.
func (s *Service) Sections(ctx context.Context, pageID string) ([]section.Section, error) {
	return s.pages.ListSections(ctx, pageID)
}

// SaveSections replaces the persisted section list of a page with the given
// one, renumbering positions from the given order. This is the save target
// of the builder's editing session.
func (s *Service) SaveSections(ctx context.Context, pageID string, sections []section.Section) error {
	normalized := make([]section.Section, len(sections))
	for i := range sections {
		normalized[i] = sections[i].Clone()
		normalized[i].Position = i
	}

	err := s.pages.ReplaceSections(ctx, pageID, normalized)
	metrics.RecordSectionSave(err == nil)
	if err != nil {
		return err
	}

	s.log.WithField("page_id", pageID).
		WithField("sections", len(normalized)).
		Info("section list saved")
	return nil
}
