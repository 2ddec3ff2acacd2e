package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LukhazD/pyform-sub000/internal/httpx"
	"github.com/LukhazD/pyform-sub000/internal/submission"
)

// Handler exposes the respondent-facing runtime endpoints. Keyboard, swipe
// and button input all arrive here as the same next/prev calls.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a Handler over the session manager.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Mount registers the runtime routes under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/runtime/{formID}"
	}

	router.Route(path, func(r chi.Router) {
		r.Post("/sessions", h.openSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getState)
			r.Post("/answers", h.answer)
			r.Post("/next", h.next)
			r.Post("/prev", h.prev)
			r.Post("/submit", h.submit)
		})
	})
}

type openSessionRequest struct {
	RespondentID string `json:"respondentId"`
	Preview      bool   `json:"preview"`
	Language     string `json:"language"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var payload openSessionRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.manager.Open(r.Context(), formID, OpenOptions{
		RespondentID: payload.RespondentID,
		Preview:      payload.Preview,
		Client: submission.ClientInfo{
			UserAgent: r.UserAgent(),
			Language:  payload.Language,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrFormNotFound):
			httpx.Error(w, http.StatusNotFound, "form not found")
		case errors.Is(err, ErrFormClosed):
			httpx.Error(w, http.StatusForbidden, "form is not accepting responses")
		case errors.Is(err, ErrNoModules):
			httpx.Error(w, http.StatusConflict, "form has no modules")
		default:
			httpx.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"data": state})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": s.State()})
}

type answerRequest struct {
	ModuleID string `json:"moduleId"`
	Value    any    `json:"value"`
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var payload answerRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.Answer(payload.ModuleID, payload.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownModule):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSubmitting):
			httpx.JSON(w, http.StatusConflict, map[string]any{"data": state, "dropped": true})
		default:
			httpx.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"data": state})
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Next(r.Context())
	h.writeTransition(w, state, err)
}

func (h *Handler) prev(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Prev()
	h.writeTransition(w, state, err)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Submit(r.Context())
	h.writeTransition(w, state, err)
}

// writeTransition maps transition outcomes onto the wire. Dropped attempts
// and validation blocks are normal flow, not system errors: the former
// return the unchanged state, the latter carry the inline signal the UI
// renders as a shake.
func (h *Handler) writeTransition(w http.ResponseWriter, state State, err error) {
	var blocked *ValidationError
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"data": state})
	case errors.As(err, &blocked):
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"data":    state,
			"blocked": true,
			"reason":  blocked.Reason,
		})
	case errors.Is(err, ErrCooldown), errors.Is(err, ErrSubmitting):
		httpx.JSON(w, http.StatusOK, map[string]any{"data": state, "dropped": true})
	default:
		// Submit transport failure: pre-submit state was restored, the
		// client shows the retry affordance.
		httpx.JSON(w, http.StatusBadGateway, map[string]any{
			"data":      state,
			"error":     err.Error(),
			"retryable": true,
		})
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.manager.Get(sessionID)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}
