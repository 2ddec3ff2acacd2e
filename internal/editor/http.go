package editor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LukhazD/pyform-sub000/internal/form"
	"github.com/LukhazD/pyform-sub000/internal/httpx"
	"github.com/LukhazD/pyform-sub000/internal/module"
)

// ErrFormNotFound is returned when an editing session is requested for a
// form that does not exist.
var ErrFormNotFound = errors.New("editor: form not found")

// FormFinder is the slice of the form repository the editor needs.
type FormFinder interface {
	Find(ctx context.Context, id string) (*form.Form, error)
}

// Manager hands out one Autosaver per form. A form's module list is owned by
// the single active editing session; there is no multi-editor merge.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Autosaver

	forms    FormFinder
	repo     module.Repository
	debounce time.Duration
}

// NewManager constructs an editor session manager.
func NewManager(forms FormFinder, repo module.Repository, debounce time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Autosaver),
		forms:    forms,
		repo:     repo,
		debounce: debounce,
	}
}

// Session returns the form's editing session, loading it on first use. The
// form must exist: without the check, edits against a bogus id would build up
// an in-memory list and eventually persist modules for a form nobody owns.
func (m *Manager) Session(ctx context.Context, formID string) (*Autosaver, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[formID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	if _, err := m.forms.Find(ctx, formID); err != nil {
		if form.IsNotFound(err) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	a := NewAutosaver(formID, m.repo, m.debounce)
	if err := a.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[formID]; ok {
		a.Close()
		return existing, nil
	}
	m.sessions[formID] = a
	return a, nil
}

// FlushAll saves every dirty session, for shutdown.
func (m *Manager) FlushAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Autosaver, 0, len(m.sessions))
	for _, a := range m.sessions {
		sessions = append(sessions, a)
	}
	m.mu.Unlock()

	for _, a := range sessions {
		_ = a.Flush(ctx)
	}
}

// Handler exposes the editor's module manipulation endpoints. Every mutation
// lands in the in-memory list; persistence happens behind the debounce.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a Handler over the editor manager.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Mount registers the editor routes under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/editor/{formID}/modules"
	}

	router.Route(path, func(r chi.Router) {
		r.Get("/", h.listModules)
		r.Post("/", h.addModule)
		r.Post("/reorder", h.reorder)
		r.Post("/flush", h.flush)
		r.Route("/{moduleID}", func(r chi.Router) {
			r.Patch("/", h.updateModule)
			r.Delete("/", h.deleteModule)
			r.Post("/duplicate", h.duplicateModule)
			r.Post("/options", h.addOption)
			r.Patch("/options/{optionID}", h.updateOption)
			r.Delete("/options/{optionID}", h.deleteOption)
		})
	})
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	modules, err := a.Modules()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": modules})
}

type addModuleRequest struct {
	Type    module.Type `json:"type"`
	AtIndex *int        `json:"atIndex"`
}

func (h *Handler) addModule(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	var payload addModuleRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	atIndex := -1
	if payload.AtIndex != nil {
		atIndex = *payload.AtIndex
	}

	m, err := a.Add(payload.Type, atIndex)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

func (h *Handler) updateModule(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	var patch module.Patch
	if err := httpx.Decode(r, &patch); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.Update(chi.URLParam(r, "moduleID"), patch); err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nil)
}

func (h *Handler) deleteModule(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := a.Delete(chi.URLParam(r, "moduleID")); err != nil {
		writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	var payload reorderRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.Reorder(payload.FromIndex, payload.ToIndex); err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nil)
}

func (h *Handler) duplicateModule(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	m, err := a.Duplicate(chi.URLParam(r, "moduleID"))
	if err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

type optionRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (h *Handler) addOption(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	var payload optionRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	opt, err := a.AddOption(chi.URLParam(r, "moduleID"), payload.Label, payload.Value)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": opt})
}

func (h *Handler) updateOption(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	var patch module.OptionPatch
	if err := httpx.Decode(r, &patch); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.UpdateOption(chi.URLParam(r, "moduleID"), chi.URLParam(r, "optionID"), patch); err != nil {
		writeEditorError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nil)
}

func (h *Handler) deleteOption(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := a.DeleteOption(chi.URLParam(r, "moduleID"), chi.URLParam(r, "optionID")); err != nil {
		writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	a, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := a.Flush(r.Context()); err != nil {
		httpx.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, nil)
}

func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*Autosaver, bool) {
	formID := chi.URLParam(r, "formID")
	a, err := h.manager.Session(r.Context(), formID)
	if err != nil {
		if errors.Is(err, ErrFormNotFound) {
			httpx.Error(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return a, true
}

func writeEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, module.ErrModuleNotFound), errors.Is(err, module.ErrOptionNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, module.ErrOptionFloor):
		// The floor is a refusal, not a failure; the UI disables the action.
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, module.ErrInvalidType), errors.Is(err, module.ErrOptionsUnsupported), errors.Is(err, module.ErrIndexOutOfRange):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
