package form

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"

	"github.com/LukhazD/pyform-sub000/internal/httpx"
)

// Handler exposes the editor-facing form metadata endpoints.
type Handler struct {
	repo Repository
}

// NewHandler constructs a Handler backed by the provided repository.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Mount registers the form routes on the provided router under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/forms"
	}

	router.Route(path, func(r chi.Router) {
		r.Get("/", h.listForms)
		r.Post("/", h.createForm)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getForm)
			r.Patch("/", h.patchForm)
			r.Delete("/", h.deleteForm)
		})
	})
}

type createFormRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	OwnerID     string         `json:"ownerId"`
	Settings    map[string]any `json:"settings"`
	Styling     map[string]any `json:"styling"`
}

// patchFormRequest is a sparse patch: absent fields are left untouched.
type patchFormRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	Settings    map[string]any `json:"settings"`
	Styling     map[string]any `json:"styling"`
}

func (h *Handler) listForms(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	forms, err := h.repo.List(r.Context(), owner)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]map[string]any, 0, len(forms))
	for _, entity := range forms {
		items = append(items, entity.ToDTO())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	var payload createFormRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		httpx.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	entity := &Form{
		Title:       title,
		Description: strings.TrimSpace(payload.Description),
		OwnerID:     strings.TrimSpace(payload.OwnerID),
	}
	if payload.Settings != nil {
		entity.Settings = datatypes.JSONMap(payload.Settings)
	}
	if payload.Styling != nil {
		entity.Styling = datatypes.JSONMap(payload.Styling)
	}

	if err := h.repo.Create(r.Context(), entity); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"data": entity.ToDTO()})
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entity, err := h.repo.Find(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			httpx.Error(w, http.StatusNotFound, "form not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"data": entity.ToDTO()})
}

func (h *Handler) patchForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload patchFormRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]any)
	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" {
			httpx.Error(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		updates["title"] = title
	}
	if payload.Description != nil {
		updates["description"] = strings.TrimSpace(*payload.Description)
	}
	if payload.Status != nil {
		status := strings.TrimSpace(*payload.Status)
		if !IsValidStatus(status) {
			httpx.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		updates["status"] = status
	}
	if payload.Settings != nil {
		updates["settings"] = datatypes.JSONMap(payload.Settings)
	}
	if payload.Styling != nil {
		updates["styling"] = datatypes.JSONMap(payload.Styling)
	}
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updates provided")
		return
	}

	entity, err := h.repo.Update(r.Context(), id, updates)
	if err != nil {
		if IsNotFound(err) {
			httpx.Error(w, http.StatusNotFound, "form not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"data": entity.ToDTO()})
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if IsNotFound(err) {
			httpx.Error(w, http.StatusNotFound, "form not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
