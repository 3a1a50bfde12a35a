package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/minhtm92-gif/PixEcom-sub002/internal/app"
)

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	application, err := app.New(app.Stores{}, app.Options{BaseDomains: []string{"pixecom.app"}}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() { _ = application.Stop(context.Background()) })
	return application
}

func marshal(t *testing.T, v any) io.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(body)
}

func do(t *testing.T, handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHandlerLifecycle(t *testing.T) {
	application := newTestApp(t)
	handler := NewHandler(application)

	// Create a store.
	resp := do(t, handler, http.MethodPost, "/api/v1/stores", marshal(t, map[string]any{
		"slug": "acme",
		"name": "Acme Outlet",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create store: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var st struct {
		ID              string `json:"id"`
		PrimaryPageSlug string `json:"primary_page_slug"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal store: %v", err)
	}
	if st.PrimaryPageSlug != "home" {
		t.Fatalf("primary page slug defaulted to %q, want home", st.PrimaryPageSlug)
	}

	// Create a page under it.
	resp = do(t, handler, http.MethodPost, "/api/v1/stores/"+st.ID+"/pages", marshal(t, map[string]any{
		"slug":  "summer-sale",
		"title": "Summer Sale",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var pg struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &pg); err != nil {
		t.Fatalf("unmarshal page: %v", err)
	}

	// Replace its sections.
	resp = do(t, handler, http.MethodPut, "/api/v1/pages/"+pg.ID+"/sections", marshal(t, map[string]any{
		"sections": []map[string]any{
			{"id": "s1", "type": "hero", "visible": true, "config": map[string]any{"headline": "Sale"}},
			{"id": "s2", "type": "product-grid", "visible": false, "config": map[string]any{}},
		},
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("put sections: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Read them back in order.
	resp = do(t, handler, http.MethodGet, "/api/v1/pages/"+pg.ID+"/sections", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get sections: expected 200, got %d", resp.Code)
	}
	var sections []struct {
		ID       string `json:"id"`
		Position int    `json:"position"`
		Visible  bool   `json:"visible"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sections); err != nil {
		t.Fatalf("unmarshal sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	for i, sec := range sections {
		if sec.Position != i {
			t.Errorf("section %d position = %d, want %d", i, sec.Position, i)
		}
	}
	if sections[1].Visible {
		t.Error("hidden section should survive the round trip with visible=false")
	}

	// Attach and verify a custom domain.
	resp = do(t, handler, http.MethodPost, "/api/v1/stores/"+st.ID+"/domains", marshal(t, map[string]any{
		"hostname": "shop.acme.com",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("attach domain: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/domains/shop.acme.com/verify", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("verify domain: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var mapping struct {
		Verification string `json:"verification"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &mapping); err != nil {
		t.Fatalf("unmarshal mapping: %v", err)
	}
	if mapping.Verification != "verified" {
		t.Fatalf("verification = %q, want verified", mapping.Verification)
	}

	// Detach it again.
	resp = do(t, handler, http.MethodDelete, "/api/v1/domains/shop.acme.com", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("detach domain: expected 204, got %d", resp.Code)
	}
}

func TestHandlerNotFoundStatus(t *testing.T) {
	application := newTestApp(t)
	handler := NewHandler(application)

	resp := do(t, handler, http.MethodGet, "/api/v1/stores/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("get missing store: expected 404, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/pages/missing/sections", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("sections of missing page: expected 404, got %d", resp.Code)
	}
}

func TestHandlerRejectsInvalidSlug(t *testing.T) {
	application := newTestApp(t)
	handler := NewHandler(application)

	resp := do(t, handler, http.MethodPost, "/api/v1/stores", marshal(t, map[string]any{
		"slug": "Not A Slug!",
		"name": "Bad",
	}))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid slug, got %d", resp.Code)
	}
}

func TestHandlerHealthz(t *testing.T) {
	application := newTestApp(t)
	handler := NewHandler(application)

	resp := do(t, handler, http.MethodGet, "/healthz", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.Code)
	}
}
