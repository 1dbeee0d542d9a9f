// Package query owns the current note view, caches fetched pages per view
// key and coalesces concurrent fetches of the same key.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/models"
	"github.com/starford/notehub/internal/notehub"
)

// Namespace prefixes every note query key.
const Namespace = "notes"

// Defaults used when no option overrides them.
const (
	DefaultPerPage    = 12
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// ErrSuperseded is returned by Load when the view or the cache generation
// changed while the fetch was in flight; its result was not applied.
var ErrSuperseded = errors.New("query superseded")

// Key identifies one page of one search.
type Key struct {
	Page   int
	Search string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s", Namespace, k.Page, k.Search)
}

// Fetcher lists notes. *notehub.Client implements it.
type Fetcher interface {
	ListNotes(ctx context.Context, p notehub.ListParams) (*models.PageResult, error)
}

// Publisher receives coordinator events. *events.Broker implements it.
type Publisher interface {
	Publish(events.Event)
}

// Snapshot is what a render surface displays.
type Snapshot struct {
	View   models.ViewState
	Key    Key
	Status Status
	// Result is the current key's page, or while it is not yet available the
	// last page that was displayed (Stale is then true).
	Result *models.PageResult
	Stale  bool
	Err    error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPerPage sets the page size requested from the API.
func WithPerPage(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithRetry sets how many times a failed fetch is retried.
func WithRetry(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.retry = n
		}
	}
}

// WithRetryDelay sets the pause before a retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

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

// Coordinator owns the view state and the note query cache.
type Coordinator struct {
	fetcher    Fetcher
	store      *Store
	group      singleflight.Group
	perPage    int
	retry      int
	retryDelay time.Duration
	logger     *slog.Logger
	pub        Publisher

	mu       sync.Mutex
	view     models.ViewState
	epoch    uint64
	fetching map[string]int
	shown    *models.PageResult
}

// New creates a coordinator starting at page 1 with an empty search.
func New(fetcher Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:    fetcher,
		store:      NewStore(),
		perPage:    DefaultPerPage,
		retry:      DefaultRetry,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
		view:       models.ViewState{Page: 1},
		fetching:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the underlying cache.
func (c *Coordinator) Store() *Store {
	return c.store
}

// PerPage returns the configured page size.
func (c *Coordinator) PerPage() int {
	return c.perPage
}

// View returns the current view state.
func (c *Coordinator) View() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Key returns the cache key of the current view.
func (c *Coordinator) Key() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyLocked()
}

func (c *Coordinator) keyLocked() Key {
	return Key{Page: c.view.Page, Search: c.view.Search}
}

// Page returns the current page number.
func (c *Coordinator) Page() int {
	return c.View().Page
}

// TotalPages returns the page count of the last displayed result, or 0.
func (c *Coordinator) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shown == nil {
		return 0
	}
	return c.shown.TotalPages
}

// SetPage moves the view to page p and reports whether the key changed.
// Pages below 1 are rejected.
func (c *Coordinator) SetPage(p int) bool {
	if p < 1 {
		return false
	}
	c.mu.Lock()
	if c.view.Page == p {
		c.mu.Unlock()
		return false
	}
	c.view.Page = p
	view := c.view
	c.mu.Unlock()

	c.publish(events.ViewChanged, view)
	return true
}

// ResetPage moves the view back to page 1.
func (c *Coordinator) ResetPage() bool {
	return c.SetPage(1)
}

// SetSearch commits a search term. A changed term always resets the page
// to 1.
func (c *Coordinator) SetSearch(term string) bool {
	c.mu.Lock()
	if c.view.Search == term {
		c.mu.Unlock()
		return false
	}
	c.view.Search = term
	c.view.Page = 1
	view := c.view
	c.mu.Unlock()

	c.publish(events.ViewChanged, view)
	return true
}

// Snapshot returns the displayable state of the current view.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	key := c.keyLocked()
	snap := Snapshot{View: c.view, Key: key, Status: StatusIdle}
	if e, ok := c.store.Get(key.String()); ok {
		snap.Status = e.Status
		snap.Err = e.Err
		if e.Status == StatusSuccess {
			snap.Result = e.Result
			return snap
		}
	} else if c.fetching[key.String()] > 0 {
		snap.Status = StatusFetching
	}
	if c.shown != nil {
		snap.Result = c.shown
		snap.Stale = true
	}
	return snap
}

// Status returns the state of an arbitrary key.
func (c *Coordinator) Status(key Key) Status {
	if e, ok := c.store.Get(key.String()); ok {
		return e.Status
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetching[key.String()] > 0 {
		return StatusFetching
	}
	return StatusIdle
}

// Load reads the current view, fetching it if it is not cached, and applies
// the result to the displayed snapshot. If the view moved on or the cache
// was invalidated before the fetch settled, the result is not applied and
// ErrSuperseded is returned alongside the current snapshot.
func (c *Coordinator) Load(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	key := c.keyLocked()
	epoch := c.epoch
	c.mu.Unlock()

	res, err := c.Get(ctx, key)
	if ctx.Err() != nil {
		return c.Snapshot(), ctx.Err()
	}

	c.mu.Lock()
	if c.keyLocked() != key || c.epoch != epoch {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("discarding superseded notes response", slog.String("key", key.String()))
		return snap, ErrSuperseded
	}
	if err == nil {
		c.shown = res
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.publish(events.NotesFailed, snap)
		return snap, err
	}
	c.publish(events.NotesLoaded, snap)
	return snap, nil
}

// Refetch drops the current key's cached entry and loads it again.
func (c *Coordinator) Refetch(ctx context.Context) (Snapshot, error) {
	c.store.Delete(c.Key().String())
	return c.Load(ctx)
}

// Get returns the page for key from the cache or fetches it. Concurrent
// calls for the same key share one fetch.
func (c *Coordinator) Get(ctx context.Context, key Key) (*models.PageResult, error) {
	if e, ok := c.store.Get(key.String()); ok {
		return e.Result, e.Err
	}

	ks := key.String()
	c.mu.Lock()
	epoch := c.epoch
	c.fetching[ks]++
	c.mu.Unlock()
	defer c.release(ks)

	ch := c.group.DoChan(flightKey(key, epoch), func() (any, error) {
		// A flight that finished between our cache check and DoChan has
		// already written the store.
		if e, ok := c.store.Get(ks); ok {
			return e.Result, e.Err
		}
		return c.flight(context.WithoutCancel(ctx), key, epoch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*models.PageResult), nil
	}
}

func flightKey(key Key, epoch uint64) string {
	return fmt.Sprintf("%s#%d", key, epoch)
}

// release drops one fetching mark for ks. Waiters and the flight itself
// each hold a mark.
func (c *Coordinator) release(ks string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching[ks]--
	if c.fetching[ks] <= 0 {
		delete(c.fetching, ks)
	}
}

func (c *Coordinator) flight(ctx context.Context, key Key, epoch uint64) (*models.PageResult, error) {
	ks := key.String()
	c.mu.Lock()
	c.fetching[ks]++
	c.mu.Unlock()
	c.publish(events.NotesFetching, key)

	res, err := c.fetchWithRetry(ctx, key)

	c.mu.Lock()
	c.fetching[ks]--
	if c.fetching[ks] <= 0 {
		delete(c.fetching, ks)
	}
	if c.epoch == epoch {
		if err != nil {
			c.store.Put(ks, Entry{Status: StatusFailed, Err: err})
		} else {
			c.store.Put(ks, Entry{Status: StatusSuccess, Result: res})
		}
	}
	c.mu.Unlock()

	return res, err
}

func (c *Coordinator) fetchWithRetry(ctx context.Context, key Key) (*models.PageResult, error) {
	params := notehub.ListParams{Page: key.Page, PerPage: c.perPage, Search: key.Search}
	for attempt := 0; ; attempt++ {
		res, err := c.fetcher.ListNotes(ctx, params)
		if err == nil {
			return res, nil
		}
		if attempt >= c.retry {
			c.logger.Warn("notes fetch failed",
				slog.String("key", key.String()),
				slog.Int("attempts", attempt+1),
				slog.String("error", err.Error()))
			return nil, err
		}
		c.logger.Info("retrying notes fetch",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		if c.retryDelay > 0 {
			t := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, err
			case <-t.C:
			}
		}
	}
}

// Invalidate discards every cached note query. Flights already in progress
// no longer write into the cache and are not joined by later loads.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	n := c.store.DeletePrefix(Namespace + "/")
	c.epoch++
	c.mu.Unlock()

	c.logger.Debug("notes cache invalidated", slog.Int("entries", n))
	c.publish(events.NotesInvalidated, nil)
}

func (c *Coordinator) publish(typ string, data any) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(events.Event{Type: typ, Data: data})
}
