package store

import "time"

// Store is a merchant tenant. Its slug is the URL path prefix every
// storefront page of the tenant lives under.
type Store struct {
	ID              string            `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	PrimaryPageSlug string            `json:"primary_page_slug"`
	Active          bool              `json:"active"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// VerificationState tracks whether a custom domain has passed ownership
// verification. Only verified mappings participate in host resolution.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
)

// DomainMapping binds a custom hostname to a store. The mapping is created
// when a merchant attaches the domain, flipped to verified by the external
// verification collaborator, and deleted on detach.
type DomainMapping struct {
	Hostname           string            `json:"hostname"`
	StoreID            string            `json:"store_id"`
	Verification       VerificationState `json:"verification"`
	VerificationMethod string            `json:"verification_method,omitempty"`
	ExpectedTarget     string            `json:"expected_target,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Resolvable reports whether the mapping should answer host lookups.
func (m DomainMapping) Resolvable() bool {
	return m.Verification == VerificationVerified
}
