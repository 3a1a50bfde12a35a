package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/store"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.StoreStore = (*Store)(nil)
var _ storage.PageStore = (*Store)(nil)
var _ storage.DomainStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shop_stores (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			primary_page_slug TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS shop_pages (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES shop_stores(id) ON DELETE CASCADE,
			slug TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (store_id, slug)
		)`,
		`CREATE TABLE IF NOT EXISTS shop_sections (
			id TEXT NOT NULL,
			page_id TEXT NOT NULL REFERENCES shop_pages(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			position INTEGER NOT NULL,
			visible BOOLEAN NOT NULL DEFAULT TRUE,
			config JSONB,
			PRIMARY KEY (page_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS shop_domains (
			hostname TEXT PRIMARY KEY,
			store_id TEXT NOT NULL REFERENCES shop_stores(id) ON DELETE CASCADE,
			verification TEXT NOT NULL,
			verification_method TEXT,
			expected_target TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return err
}

// --- StoreStore -------------------------------------------------------------

func (s *Store) CreateStore(ctx context.Context, st store.Store) (store.Store, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.Slug = strings.ToLower(strings.TrimSpace(st.Slug))
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	metadataJSON, err := json.Marshal(st.Metadata)
	if err != nil {
		return store.Store{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shop_stores (id, slug, name, primary_page_slug, active, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, st.ID, st.Slug, st.Name, st.PrimaryPageSlug, st.Active, metadataJSON, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return store.Store{}, err
	}
	return st, nil
}

func (s *Store) UpdateStore(ctx context.Context, st store.Store) (store.Store, error) {
	existing, err := s.GetStore(ctx, st.ID)
	if err != nil {
		return store.Store{}, err
	}

	st.Slug = strings.ToLower(strings.TrimSpace(st.Slug))
	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	metadataJSON, err := json.Marshal(st.Metadata)
	if err != nil {
		return store.Store{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE shop_stores
		SET slug = $2, name = $3, primary_page_slug = $4, active = $5, metadata = $6, updated_at = $7
		WHERE id = $1
	`, st.ID, st.Slug, st.Name, st.PrimaryPageSlug, st.Active, metadataJSON, st.UpdatedAt)
	if err != nil {
		return store.Store{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.Store{}, fmt.Errorf("store %s: %w", st.ID, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) GetStore(ctx context.Context, id string) (store.Store, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, primary_page_slug, active, metadata, created_at, updated_at
		FROM shop_stores
		WHERE id = $1
	`, id)
	st, err := scanStore(row)
	if err != nil {
		return store.Store{}, notFound(err, "store", id)
	}
	return st, nil
}

func (s *Store) GetStoreBySlug(ctx context.Context, slug string) (store.Store, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, primary_page_slug, active, metadata, created_at, updated_at
		FROM shop_stores
		WHERE slug = $1
	`, slug)
	st, err := scanStore(row)
	if err != nil {
		return store.Store{}, notFound(err, "store slug", slug)
	}
	return st, nil
}

func (s *Store) ListStores(ctx context.Context) ([]store.Store, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, primary_page_slug, active, metadata, created_at, updated_at
		FROM shop_stores
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []store.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func (s *Store) DeleteStore(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shop_stores WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("store %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStore(row rowScanner) (store.Store, error) {
	var (
		st          store.Store
		metadataRaw []byte
	)
	if err := row.Scan(&st.ID, &st.Slug, &st.Name, &st.PrimaryPageSlug, &st.Active, &metadataRaw, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return store.Store{}, err
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &st.Metadata)
	}
	return st, nil
}

// --- PageStore --------------------------------------------------------------

func (s *Store) CreatePage(ctx context.Context, pg section.Page) (section.Page, error) {
	if pg.StoreID == "" {
		return section.Page{}, errors.New("store_id required")
	}
	if pg.ID == "" {
		pg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pg.CreatedAt = now
	pg.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_pages (id, store_id, slug, kind, title, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pg.ID, pg.StoreID, pg.Slug, string(pg.Kind), pg.Title, pg.Published, pg.CreatedAt, pg.UpdatedAt)
	if err != nil {
		return section.Page{}, err
	}
	return pg, nil
}

func (s *Store) UpdatePage(ctx context.Context, pg section.Page) (section.Page, error) {
	existing, err := s.GetPage(ctx, pg.ID)
	if err != nil {
		return section.Page{}, err
	}

	pg.StoreID = existing.StoreID
	pg.CreatedAt = existing.CreatedAt
	pg.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE shop_pages
		SET slug = $2, kind = $3, title = $4, published = $5, updated_at = $6
		WHERE id = $1
	`, pg.ID, pg.Slug, string(pg.Kind), pg.Title, pg.Published, pg.UpdatedAt)
	if err != nil {
		return section.Page{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return section.Page{}, fmt.Errorf("page %s: %w", pg.ID, storage.ErrNotFound)
	}
	return pg, nil
}

func (s *Store) GetPage(ctx context.Context, id string) (section.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, slug, kind, title, published, created_at, updated_at
		FROM shop_pages
		WHERE id = $1
	`, id)
	pg, err := scanPage(row)
	if err != nil {
		return section.Page{}, notFound(err, "page", id)
	}
	return pg, nil
}

func (s *Store) GetPageBySlug(ctx context.Context, storeID, slug string) (section.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, slug, kind, title, published, created_at, updated_at
		FROM shop_pages
		WHERE store_id = $1 AND slug = $2
	`, storeID, slug)
	pg, err := scanPage(row)
	if err != nil {
		return section.Page{}, notFound(err, "page", storeID+"/"+slug)
	}
	return pg, nil
}

func (s *Store) ListPages(ctx context.Context, storeID string) ([]section.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, slug, kind, title, published, created_at, updated_at
		FROM shop_pages
		WHERE store_id = $1
		ORDER BY created_at
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []section.Page
	for rows.Next() {
		pg, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pg)
	}
	return result, rows.Err()
}

func (s *Store) DeletePage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shop_pages WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("page %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanPage(row rowScanner) (section.Page, error) {
	var (
		pg   section.Page
		kind string
	)
	if err := row.Scan(&pg.ID, &pg.StoreID, &pg.Slug, &kind, &pg.Title, &pg.Published, &pg.CreatedAt, &pg.UpdatedAt); err != nil {
		return section.Page{}, err
	}
	pg.Kind = section.Kind(kind)
	return pg, nil
}

func (s *Store) ListSections(ctx context.Context, pageID string) ([]section.Section, error) {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, position, visible, config
		FROM shop_sections
		WHERE page_id = $1
		ORDER BY position
	`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []section.Section
	for rows.Next() {
		var (
			sec       section.Section
			configRaw []byte
		)
		if err := rows.Scan(&sec.ID, &sec.Type, &sec.Position, &sec.Visible, &configRaw); err != nil {
			return nil, err
		}
		if len(configRaw) > 0 {
			_ = json.Unmarshal(configRaw, &sec.Config)
		}
		result = append(result, sec)
	}
	return result, rows.Err()
}

// ReplaceSections swaps the full section list of a page in one transaction so
// a concurrent reader never observes a torn list.
func (s *Store) ReplaceSections(ctx context.Context, pageID string, sections []section.Section) error {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shop_sections WHERE page_id = $1`, pageID); err != nil {
		return err
	}

	for _, sec := range sections {
		configJSON, err := json.Marshal(sec.Config)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shop_sections (id, page_id, type, position, visible, config)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sec.ID, pageID, sec.Type, sec.Position, sec.Visible, configJSON); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE shop_pages SET updated_at = $2 WHERE id = $1
	`, pageID, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// --- DomainStore ------------------------------------------------------------

func (s *Store) CreateDomain(ctx context.Context, m store.DomainMapping) (store.DomainMapping, error) {
	m.Hostname = strings.ToLower(strings.TrimSpace(m.Hostname))
	if m.Hostname == "" {
		return store.DomainMapping{}, errors.New("hostname required")
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_domains (hostname, store_id, verification, verification_method, expected_target, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.Hostname, m.StoreID, string(m.Verification), m.VerificationMethod, m.ExpectedTarget, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return store.DomainMapping{}, err
	}
	return m, nil
}

func (s *Store) UpdateDomain(ctx context.Context, m store.DomainMapping) (store.DomainMapping, error) {
	existing, err := s.GetDomain(ctx, m.Hostname)
	if err != nil {
		return store.DomainMapping{}, err
	}

	m.Hostname = existing.Hostname
	m.StoreID = existing.StoreID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE shop_domains
		SET verification = $2, verification_method = $3, expected_target = $4, updated_at = $5
		WHERE hostname = $1
	`, m.Hostname, string(m.Verification), m.VerificationMethod, m.ExpectedTarget, m.UpdatedAt)
	if err != nil {
		return store.DomainMapping{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.DomainMapping{}, fmt.Errorf("hostname %s: %w", m.Hostname, storage.ErrNotFound)
	}
	return m, nil
}

func (s *Store) GetDomain(ctx context.Context, hostname string) (store.DomainMapping, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	row := s.db.QueryRowContext(ctx, `
		SELECT hostname, store_id, verification, verification_method, expected_target, created_at, updated_at
		FROM shop_domains
		WHERE hostname = $1
	`, hostname)

	var (
		m            store.DomainMapping
		verification string
	)
	if err := row.Scan(&m.Hostname, &m.StoreID, &verification, &m.VerificationMethod, &m.ExpectedTarget, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return store.DomainMapping{}, notFound(err, "hostname", hostname)
	}
	m.Verification = store.VerificationState(verification)
	return m, nil
}

func (s *Store) ListDomains(ctx context.Context, storeID string) ([]store.DomainMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hostname, store_id, verification, verification_method, expected_target, created_at, updated_at
		FROM shop_domains
		WHERE store_id = $1
		ORDER BY hostname
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []store.DomainMapping
	for rows.Next() {
		var (
			m            store.DomainMapping
			verification string
		)
		if err := rows.Scan(&m.Hostname, &m.StoreID, &verification, &m.VerificationMethod, &m.ExpectedTarget, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Verification = store.VerificationState(verification)
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) DeleteDomain(ctx context.Context, hostname string) error {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM shop_domains WHERE hostname = $1
	`, hostname)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("hostname %s: %w", hostname, storage.ErrNotFound)
	}
	return nil
}
