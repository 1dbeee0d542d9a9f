package notehubtest

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router serving the NoteHub notes routes for srv.
func NewRouter(srv *Server) chi.Router {
	h := &Handler{srv: srv}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(AuthMiddleware(srv.token))

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	return r
}
