package module

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LukhazD/pyform-sub000/internal/httpx"
)

// Handler exposes the editor-facing module list endpoints: fetch and bulk
// replace save.
type Handler struct {
	repo Repository
}

// NewHandler constructs a Handler backed by the provided repository.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Mount registers the module routes under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/forms/{formID}/modules"
	}

	router.Route(path, func(r chi.Router) {
		r.Get("/", h.listModules)
		r.Put("/", h.replaceModules)
	})
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	modules, err := h.repo.ListByForm(r.Context(), formID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"data": modules})
}

type replaceModulesRequest struct {
	Modules []Module `json:"modules"`
}

func (h *Handler) replaceModules(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var payload replaceModulesRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// Normalise through List so a malformed payload cannot persist broken
	// ordering, missing identities or colliding identities.
	seen := make(map[string]struct{}, len(payload.Modules))
	for i := range payload.Modules {
		if !payload.Modules[i].Type.IsValid() {
			httpx.Error(w, http.StatusBadRequest, ErrInvalidType.Error())
			return
		}
		id := payload.Modules[i].ClientID
		if id == "" {
			httpx.Error(w, http.StatusBadRequest, "module missing id")
			return
		}
		if _, dup := seen[id]; dup {
			httpx.Error(w, http.StatusBadRequest, "duplicate module id "+id)
			return
		}
		seen[id] = struct{}{}
	}
	list := NewList(payload.Modules)

	saved, err := h.repo.ReplaceAll(r.Context(), formID, list.Items())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"data": saved})
}
