package section

import "time"

// Section is one configurable, orderable block of a page. The core never
// interprets Type or the contents of Config; both belong to the external
// editor/renderer registered for the type tag.
type Section struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position int            `json:"position"`
	Visible  bool           `json:"visible"`
	Config   map[string]any `json:"config"`
}

// CloneConfig returns a value copy of the section's config map so callers can
// mutate the result without aliasing the original. Nested maps and slices are
// copied recursively.
func (s Section) CloneConfig() map[string]any {
	return cloneConfig(s.Config)
}

// Clone returns a deep-value copy of the section.
func (s Section) Clone() Section {
	s.Config = cloneConfig(s.Config)
	return s
}

func cloneConfig(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneConfig(tv)
	case []any:
		out := make([]any, len(tv))
		for i := range tv {
			out[i] = cloneValue(tv[i])
		}
		return out
	default:
		return v
	}
}

// Kind distinguishes the two page shapes of the builder. Both carry an
// ordered section list and share every operation.
type Kind string

const (
	KindSellpage Kind = "sellpage"
	KindHomepage Kind = "homepage"
)

// Page owns an ordered sequence of sections. Sections have no existence
// outside their page.
type Page struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Slug      string    `json:"slug"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
