package notehubtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notehub/internal/apperr"
	"github.com/starford/notehub/internal/models"
)

const defaultPerPage = 12

// Handler holds the fake API route handlers.
type Handler struct {
	srv *Server
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	if h.srv.intercept(w, r, RouteList) {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = defaultPerPage
	}

	res := h.srv.Store.List(page, perPage, q.Get("search"))
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       res.Notes,
		"page":       res.Page,
		"perPage":    res.PerPage,
		"totalPages": res.TotalPages,
		"totalItems": res.TotalItems,
	})
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if h.srv.intercept(w, r, RouteCreate) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var draft models.NoteDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := draft.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note := h.srv.Store.Create(draft)
	writeJSON(w, http.StatusCreated, map[string]any{"data": note})
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if h.srv.intercept(w, r, RouteDelete) {
		return
	}
	id := chi.URLParam(r, "id")
	note, err := h.srv.Store.Delete(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("Note not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": note})
}
