package upload

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LukhazD/pyform-sub000/internal/httpx"
)

// Handler exposes the presign endpoint consumed by FILE_UPLOAD modules.
type Handler struct {
	signer Signer
}

// NewHandler constructs a Handler over a signer.
func NewHandler(signer Signer) *Handler {
	return &Handler{signer: signer}
}

// Mount registers the upload routes under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/runtime/{formID}/uploads"
	}
	router.Post(path, h.presign)
}

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

func (h *Handler) presign(w http.ResponseWriter, r *http.Request) {
	if h.signer == nil {
		httpx.Error(w, http.StatusNotImplemented, "uploads are not configured")
		return
	}

	var payload presignRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.signer.Sign(chi.URLParam(r, "formID"), payload.Filename, payload.ContentType)
	if err != nil {
		if errors.Is(err, ErrEmptyFilename) {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"data": target})
}
