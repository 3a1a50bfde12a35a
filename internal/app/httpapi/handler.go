// Package httpapi exposes the admin REST API and the public storefront
// surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/minhtm92-gif/PixEcom-sub002/internal/app"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/metrics"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns the admin API router mounted under /api/v1, plus the
// health and metrics endpoints.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/stores", h.createStore).Methods(http.MethodPost)
	api.HandleFunc("/stores", h.listStores).Methods(http.MethodGet)
	api.HandleFunc("/stores/{id}", h.getStore).Methods(http.MethodGet)
	api.HandleFunc("/stores/{id}", h.patchStore).Methods(http.MethodPatch)
	api.HandleFunc("/stores/{id}", h.deleteStore).Methods(http.MethodDelete)

	api.HandleFunc("/stores/{id}/domains", h.attachDomain).Methods(http.MethodPost)
	api.HandleFunc("/stores/{id}/domains", h.listDomains).Methods(http.MethodGet)
	api.HandleFunc("/domains/{hostname}/verify", h.verifyDomain).Methods(http.MethodPost)
	api.HandleFunc("/domains/{hostname}", h.detachDomain).Methods(http.MethodDelete)

	api.HandleFunc("/stores/{id}/pages", h.createPage).Methods(http.MethodPost)
	api.HandleFunc("/stores/{id}/pages", h.listPages).Methods(http.MethodGet)
	api.HandleFunc("/pages/{id}", h.getPage).Methods(http.MethodGet)
	api.HandleFunc("/pages/{id}", h.patchPage).Methods(http.MethodPatch)
	api.HandleFunc("/pages/{id}", h.deletePage).Methods(http.MethodDelete)

	api.HandleFunc("/pages/{id}/sections", h.getSections).Methods(http.MethodGet)
	api.HandleFunc("/pages/{id}/sections", h.putSections).Methods(http.MethodPut)

	return r
}

// --- stores -----------------------------------------------------------------

func (h *handler) createStore(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug            string            `json:"slug"`
		Name            string            `json:"name"`
		PrimaryPageSlug string            `json:"primary_page_slug"`
		Metadata        map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	st, err := h.app.Stores.Create(r.Context(), payload.Slug, payload.Name, payload.PrimaryPageSlug, payload.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *handler) listStores(w http.ResponseWriter, r *http.Request) {
	sts, err := h.app.Stores.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sts)
}

func (h *handler) getStore(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Stores.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) patchStore(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name            *string `json:"name"`
		PrimaryPageSlug *string `json:"primary_page_slug"`
		Active          *bool   `json:"active"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	st, err := h.app.Stores.Update(r.Context(), mux.Vars(r)["id"], payload.Name, payload.PrimaryPageSlug, payload.Active)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Stores.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- domains ----------------------------------------------------------------

func (h *handler) attachDomain(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Hostname           string `json:"hostname"`
		VerificationMethod string `json:"verification_method"`
		ExpectedTarget     string `json:"expected_target"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mapping, err := h.app.Stores.AttachDomain(r.Context(), mux.Vars(r)["id"], payload.Hostname, payload.VerificationMethod, payload.ExpectedTarget)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, mapping)
}

func (h *handler) listDomains(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.app.Stores.ListDomains(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, mappings)
}

func (h *handler) verifyDomain(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.app.Stores.MarkDomainVerified(r.Context(), mux.Vars(r)["hostname"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

func (h *handler) detachDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Stores.DetachDomain(r.Context(), mux.Vars(r)["hostname"]); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- pages ------------------------------------------------------------------

func (h *handler) createPage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
		Kind  string `json:"kind"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Kind == "" {
		payload.Kind = string(section.KindSellpage)
	}

	pg, err := h.app.Pages.Create(r.Context(), mux.Vars(r)["id"], payload.Slug, payload.Title, section.Kind(payload.Kind))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, pg)
}

func (h *handler) listPages(w http.ResponseWriter, r *http.Request) {
	pgs, err := h.app.Pages.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pgs)
}

func (h *handler) getPage(w http.ResponseWriter, r *http.Request) {
	pg, err := h.app.Pages.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

func (h *handler) patchPage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug      *string `json:"slug"`
		Title     *string `json:"title"`
		Published *bool   `json:"published"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pg, err := h.app.Pages.Update(r.Context(), mux.Vars(r)["id"], payload.Slug, payload.Title, payload.Published)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

func (h *handler) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Pages.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- sections ---------------------------------------------------------------

func (h *handler) getSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.app.Pages.Sections(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if sections == nil {
		sections = []section.Section{}
	}
	writeJSON(w, http.StatusOK, sections)
}

// putSections replaces the whole section list of a page. The builder edits
// locally and submits the full list on save.
func (h *handler) putSections(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Sections []section.Section `json:"sections"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pageID := mux.Vars(r)["id"]
	if err := h.app.Pages.SaveSections(r.Context(), pageID, payload.Sections); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	sections, err := h.app.Pages.Sections(r.Context(), pageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// --- helpers ----------------------------------------------------------------

func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
