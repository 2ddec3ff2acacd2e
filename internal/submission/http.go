package submission

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LukhazD/pyform-sub000/internal/httpx"
)

// Handler exposes the editor-facing results endpoints: the stored submissions
// and the per-form response counter maintained by the worker.
type Handler struct {
	store Store
}

// NewHandler constructs a Handler over the submission store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Mount registers the results routes under the supplied base path. Plain
// registrations, not a subrouter: a mount at /forms/{formID} would shadow the
// form handler's own /{id} routes.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/forms/{formID}"
	}

	router.Get(path+"/submissions", h.listSubmissions)
	router.Get(path+"/stats", h.stats)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	records, err := h.store.ListByForm(r.Context(), formID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	stats, err := h.store.Stats(r.Context(), formID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": stats})
}
