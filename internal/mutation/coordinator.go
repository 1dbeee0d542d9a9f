// Package mutation performs note creates and deletes and invalidates the
// note query cache when they succeed.
package mutation

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/models"
)

// API is the subset of the notes client used for mutations.
type API interface {
	CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) (*models.Note, error)
}

// Queries is the query cache a successful mutation invalidates.
type Queries interface {
	Invalidate()
	ResetPage() bool
}

// Publisher receives mutation events. *events.Broker implements it.
type Publisher interface {
	Publish(events.Event)
	PublishNoteEvent(kind, id string)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithPublisher sets where events are published.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) {
		c.pub = p
	}
}

// WithOnCreated registers a hook run after a successful create, typically
// closing the create form.
func WithOnCreated(fn func(*models.Note)) Option {
	return func(c *Coordinator) {
		c.onCreated = fn
	}
}

// Coordinator runs mutations. It does not deduplicate concurrent identical
// submissions; callers disable their controls while InFlight reports true.
type Coordinator struct {
	api       API
	queries   Queries
	logger    *slog.Logger
	pub       Publisher
	onCreated func(*models.Note)

	creating atomic.Int32
	deleting atomic.Int32
}

// New creates a mutation coordinator.
func New(api API, queries Queries, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:     api,
		queries: queries,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitCreate creates a note. On success the note cache is invalidated, the
// view returns to page 1 and the create form is told to close. On failure
// nothing changes and the caller keeps its draft for resubmission.
func (c *Coordinator) SubmitCreate(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	c.creating.Add(1)
	defer c.creating.Add(-1)

	note, err := c.api.CreateNote(ctx, draft)
	if err != nil {
		c.logger.Warn("create note failed", slog.String("title", draft.Title), slog.String("error", err.Error()))
		return nil, err
	}

	c.queries.Invalidate()
	c.queries.ResetPage()
	c.logger.Info("note created", slog.String("id", note.ID))

	if c.pub != nil {
		c.pub.PublishNoteEvent("created", note.ID)
		c.pub.Publish(events.Event{Type: events.FormClose})
	}
	if c.onCreated != nil {
		c.onCreated(note)
	}
	return note, nil
}

// SubmitDelete deletes the note with id. On success the note cache is
// invalidated; the deleted item is never patched out of cached pages.
func (c *Coordinator) SubmitDelete(ctx context.Context, id string) (*models.Note, error) {
	c.deleting.Add(1)
	defer c.deleting.Add(-1)

	note, err := c.api.DeleteNote(ctx, id)
	if err != nil {
		c.logger.Warn("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}

	c.queries.Invalidate()
	c.logger.Info("note deleted", slog.String("id", id))

	if c.pub != nil {
		c.pub.PublishNoteEvent("deleted", id)
	}
	return note, nil
}

// CreateInFlight reports whether a create is running.
func (c *Coordinator) CreateInFlight() bool {
	return c.creating.Load() > 0
}

// DeleteInFlight reports whether a delete is running.
func (c *Coordinator) DeleteInFlight() bool {
	return c.deleting.Load() > 0
}

// InFlight reports whether any mutation is running.
func (c *Coordinator) InFlight() bool {
	return c.CreateInFlight() || c.DeleteInFlight()
}
