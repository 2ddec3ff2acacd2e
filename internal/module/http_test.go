package module

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubRepo struct {
	stored   []Module
	replaced int
}

func (r *stubRepo) ListByForm(ctx context.Context, formID string) ([]Module, error) {
	return append([]Module(nil), r.stored...), nil
}

func (r *stubRepo) ReplaceAll(ctx context.Context, formID string, modules []Module) ([]Module, error) {
	r.replaced++
	r.stored = append([]Module(nil), modules...)
	return r.stored, nil
}

func newModuleRouter(repo Repository) chi.Router {
	router := chi.NewRouter()
	NewHandler(repo).Mount(router, "/forms/{formID}/modules")
	return router
}

func putModules(t *testing.T, router chi.Router, modules []map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{"modules": modules}); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/forms/form-1/modules/", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReplaceModulesRejectsDuplicateIDs(t *testing.T) {
	repo := &stubRepo{}
	router := newModuleRouter(repo)

	rec := putModules(t, router, []map[string]any{
		{"id": "m-1", "type": "TEXT", "order": 0},
		{"id": "m-1", "type": "EMAIL", "order": 1},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.replaced != 0 {
		t.Fatalf("duplicate ids reached the store")
	}
}

func TestReplaceModulesRejectsMissingIDAndBadType(t *testing.T) {
	repo := &stubRepo{}
	router := newModuleRouter(repo)

	rec := putModules(t, router, []map[string]any{
		{"id": "", "type": "TEXT", "order": 0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: expected 400, got %d", rec.Code)
	}

	rec = putModules(t, router, []map[string]any{
		{"id": "m-1", "type": "CAROUSEL", "order": 0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type: expected 400, got %d", rec.Code)
	}
	if repo.replaced != 0 {
		t.Fatalf("invalid payloads reached the store")
	}
}

func TestReplaceModulesNormalisesOrdering(t *testing.T) {
	repo := &stubRepo{}
	router := newModuleRouter(repo)

	rec := putModules(t, router, []map[string]any{
		{"id": "m-b", "type": "EMAIL", "order": 7},
		{"id": "m-a", "type": "TEXT", "order": 3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(repo.stored) != 2 {
		t.Fatalf("expected 2 stored modules, got %d", len(repo.stored))
	}
	if repo.stored[0].ClientID != "m-a" || repo.stored[0].Order != 0 {
		t.Fatalf("ordering not normalised: %+v", repo.stored[0])
	}
	if repo.stored[1].ClientID != "m-b" || repo.stored[1].Order != 1 {
		t.Fatalf("ordering not normalised: %+v", repo.stored[1])
	}
}
