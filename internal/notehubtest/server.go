// Package notehubtest provides an in-process fake of the NoteHub API for tests.
package notehubtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/starford/notehub/internal/models"
)

// Route names used for call counting and fault injection.
const (
	RouteList   = "list"
	RouteCreate = "create"
	RouteDelete = "delete"
)

type fault struct {
	status int
	times  int
}

// Server is a running fake NoteHub API.
type Server struct {
	*httptest.Server
	Store *Store

	token string

	mu     sync.Mutex
	calls  map[string]int
	faults map[string]*fault
	hooks  map[string]func(*http.Request)
}

// NewServer starts a fake API that accepts token as its bearer credential.
// The server is closed when the returned value's Close is called.
func NewServer(token string) *Server {
	s := &Server{
		Store:  NewStore(),
		token:  token,
		calls:  make(map[string]int),
		faults: make(map[string]*fault),
		hooks:  make(map[string]func(*http.Request)),
	}
	router := NewRouter(s)
	s.Server = httptest.NewServer(s.count(router))
	return s
}

// Seed creates n notes titled "Note 1".."Note n" (Note n is newest).
func (s *Server) Seed(n int) []models.Note {
	out := make([]models.Note, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, s.Store.Create(models.NoteDraft{
			Title:   fmt.Sprintf("Note %d", i),
			Content: fmt.Sprintf("content %d", i),
			Tag:     models.TagTodo,
		}))
	}
	return out
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next times requests to route answer with status.
func (s *Server) FailNext(route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = &fault{status: status, times: times}
}

// OnRequest registers fn to run before route is answered. fn may block.
func (s *Server) OnRequest(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[route] = fn
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := routeOf(r); route != "" {
			s.mu.Lock()
			s.calls[route]++
			s.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

// intercept runs hooks and injected faults; it reports whether the
// response has already been written.
func (s *Server) intercept(w http.ResponseWriter, r *http.Request, route string) bool {
	s.mu.Lock()
	hook := s.hooks[route]
	var status int
	if f := s.faults[route]; f != nil && f.times > 0 {
		f.times--
		status = f.status
	}
	s.mu.Unlock()

	if hook != nil {
		hook(r)
	}
	if status != 0 {
		writeJSON(w, status, errorBody(http.StatusText(status)))
		return true
	}
	return false
}

func routeOf(r *http.Request) string {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/notes":
		return RouteList
	case r.Method == http.MethodPost && r.URL.Path == "/notes":
		return RouteCreate
	case r.Method == http.MethodDelete:
		return RouteDelete
	default:
		return ""
	}
}
