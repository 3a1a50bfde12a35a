package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/minhtm92-gif/PixEcom-sub002/internal/app"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domains"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/metrics"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/services/stores"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

// NotFoundPath is the internal path unknown hostnames are rewritten to.
const NotFoundPath = "/404"

// Storefront serves public traffic. A rewrite stage in front of the render
// routes maps each hostname onto the canonical /{store}/{page} layout, so the
// routes themselves never care which domain the request arrived on.
type Storefront struct {
	app          *app.Application
	log          *logging.Logger
	passthrough  []string
	fallbackPage string
}

// NewStorefront builds the public-facing handler stack. Paths starting with
// one of the passthrough prefixes bypass rewriting entirely.
func NewStorefront(application *app.Application, log *logging.Logger, passthrough ...string) *Storefront {
	if log == nil {
		log = logging.NewDefault("storefront")
	}
	if len(passthrough) == 0 {
		passthrough = []string{"/api/", "/static/", "/assets/", "/healthz", "/metrics"}
	}
	return &Storefront{
		app:          application,
		log:          log,
		passthrough:  passthrough,
		fallbackPage: stores.DefaultPrimaryPageSlug,
	}
}

// Handler returns the rewrite stage wrapped around the render routes.
func (s *Storefront) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(NotFoundPath, s.renderNotFound)
	r.HandleFunc("/{store}/{page}", s.renderPage).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.renderNotFound)
	return s.Rewrite(r)
}

// Rewrite classifies the request host and rewrites the URL path before
// handing off to next.
//
//	tenant host, "/"        -> /{storeSlug}/{primaryPageSlug}
//	tenant host, "/x"       -> /{storeSlug}/x
//	tenant host, "/x/y/..." -> unchanged
//	platform host           -> unchanged
//	unknown host            -> NotFoundPath
func (s *Storefront) Rewrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range s.passthrough {
			if strings.HasPrefix(r.URL.Path, prefix) {
				metrics.RecordStorefrontDecision("passthrough")
				next.ServeHTTP(w, r)
				return
			}
		}

		res := s.app.Resolver.Classify(r.Context(), r.Host)
		switch res.Class {
		case domains.Platform:
			metrics.RecordStorefrontDecision("passthrough")

		case domains.Tenant:
			segments := splitPath(r.URL.Path)
			switch len(segments) {
			case 0:
				page := res.PrimaryPageSlug
				if page == "" {
					page = s.fallbackPage
				}
				r.URL.Path = "/" + res.StoreSlug + "/" + page
				metrics.RecordStorefrontDecision("rewrite")
			case 1:
				r.URL.Path = "/" + res.StoreSlug + "/" + segments[0]
				metrics.RecordStorefrontDecision("rewrite")
			default:
				// Deep paths already carry the canonical layout.
				metrics.RecordStorefrontDecision("passthrough")
			}

		case domains.NotFound:
			r.URL.Path = NotFoundPath
			metrics.RecordStorefrontDecision("not_found")
		}

		next.ServeHTTP(w, r)
	})
}

// renderPage serves the page context the storefront client hydrates from:
// the store, the page, and the full ordered section list. Hidden sections
// stay in the payload with visible=false so the editor preview can show them.
func (s *Storefront) renderPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	st, err := s.app.Stores.GetBySlug(r.Context(), vars["store"])
	if err != nil {
		s.renderNotFound(w, r)
		return
	}
	pg, err := s.app.Pages.GetBySlug(r.Context(), st.ID, vars["page"])
	if err != nil {
		s.renderNotFound(w, r)
		return
	}
	sections, err := s.app.Pages.Sections(r.Context(), pg.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sections == nil {
		sections = []section.Section{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"store":    st,
		"page":     pg,
		"sections": sections,
	})
}

func (s *Storefront) renderNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
