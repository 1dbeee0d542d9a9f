package notehubtest

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notehub/internal/apperr"
	"github.com/starford/notehub/internal/models"
)

// Store is the in-memory note collection behind the fake server.
// Notes are kept newest first.
type Store struct {
	mu    sync.Mutex
	notes []models.Note
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Create assigns an id and timestamp to draft and stores it.
func (s *Store) Create(draft models.NoteDraft) models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if len(s.notes) > 0 && !ts.After(s.notes[0].CreatedAt) {
		ts = s.notes[0].CreatedAt.Add(time.Millisecond)
	}
	note := models.Note{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		Content:   draft.Content,
		Tag:       draft.Tag,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.notes = append([]models.Note{note}, s.notes...)
	return note
}

// Delete removes the note with id.
func (s *Store) Delete(id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return n, nil
		}
	}
	return models.Note{}, apperr.ErrNotFound
}

// List returns one page of notes whose title or content contains search.
func (s *Store) List(page, perPage int, search string) models.PageResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	var matched []models.Note
	for _, n := range s.notes {
		if needle == "" ||
			strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) {
			matched = append(matched, n)
		}
	}

	total := len(matched)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	notes := []models.Note{}
	if start < total {
		end := min(start+perPage, total)
		notes = append(notes, matched[start:end]...)
	}
	return models.PageResult{
		Notes:      notes,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

// Len returns the number of stored notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}
