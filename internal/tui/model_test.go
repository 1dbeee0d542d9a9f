package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notehub/internal/apperr"
	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/mutation"
	"github.com/starford/notehub/internal/notehub"
	"github.com/starford/notehub/internal/notehubtest"
	"github.com/starford/notehub/internal/pagination"
	"github.com/starford/notehub/internal/query"
	"github.com/starford/notehub/internal/search"
)

type harness struct {
	m       *Model
	api     *notehubtest.Server
	commits []string
}

func newHarness(t *testing.T, seed int) *harness {
	t.Helper()

	api := notehubtest.NewServer("secret")
	t.Cleanup(api.Close)
	api.Seed(seed)

	client := notehub.NewClient(api.URL, "secret")
	queries := query.New(client, query.WithRetryDelay(0))
	h := &harness{api: api}

	// The quiet period is long enough that only Flush commits.
	s := search.New(time.Hour, func(term string) {
		queries.SetSearch(term)
		h.commits = append(h.commits, term)
	})
	t.Cleanup(s.Stop)

	h.m = NewModel(context.Background(), Deps{
		Queries:   queries,
		Mutations: mutation.New(client, queries),
		Pages:     pagination.New(queries),
		Search:    s,
	})
	h.exec(t, h.m.Init())
	return h
}

// exec runs cmd and feeds its messages back into the model until the
// chain of request commands ends.
func (h *harness) exec(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(t, c)
		}
	case loadedMsg, createdMsg, deletedMsg:
		_, next := h.m.Update(msg)
		h.exec(t, next)
	default:
		t.Fatalf("unexpected message %T", msg)
	}
}

func (h *harness) key(s string) tea.Cmd {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := h.m.Update(msg)
	return cmd
}

func TestInitialLoadRendersFirstPage(t *testing.T) {
	h := newHarness(t, 13)

	if got := len(h.m.notes()); got != 12 {
		t.Fatalf("notes = %d, want 12", got)
	}
	if h.m.loading {
		t.Error("loading should be cleared")
	}
	view := h.m.View()
	if !strings.Contains(view, "Note 13") {
		t.Errorf("view missing newest note:\n%s", view)
	}
	if !strings.Contains(view, "›") {
		t.Errorf("view missing pagination bar:\n%s", view)
	}
}

func TestPagingForwardAndBounds(t *testing.T) {
	h := newHarness(t, 13)

	h.exec(t, h.key("n"))
	if got := h.m.deps.Queries.Page(); got != 2 {
		t.Fatalf("page = %d, want 2", got)
	}
	if got := len(h.m.notes()); got != 1 {
		t.Errorf("notes on page 2 = %d, want 1", got)
	}

	if cmd := h.key("n"); cmd != nil {
		t.Error("next past the last page should not load")
	}
	if got := h.m.deps.Queries.Page(); got != 2 {
		t.Errorf("page = %d, want 2", got)
	}

	h.exec(t, h.key("1"))
	if got := h.m.deps.Queries.Page(); got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
	if calls := h.api.Calls(notehubtest.RouteList); calls != 2 {
		t.Errorf("list calls = %d, want 2 (page 1 served from cache)", calls)
	}
}

func TestSearchFlushResetsPage(t *testing.T) {
	h := newHarness(t, 13)
	h.exec(t, h.key("n"))

	h.key("/")
	if !h.m.searching {
		t.Fatal("slash should focus the search box")
	}
	h.key("Note 1")
	if len(h.commits) != 0 {
		t.Fatalf("commits = %v before flush", h.commits)
	}
	if h.m.deps.Search.State() != search.StatePending {
		t.Errorf("state = %v, want pending", h.m.deps.Search.State())
	}

	h.key("enter")
	if len(h.commits) != 1 || h.commits[0] != "Note 1" {
		t.Fatalf("commits = %v", h.commits)
	}
	if got := h.m.deps.Queries.Page(); got != 1 {
		t.Errorf("page = %d, want 1 after search", got)
	}

	_, cmd := h.m.Update(searchCommittedMsg{term: "Note 1"})
	h.exec(t, cmd)
	if got := len(h.m.notes()); got != 5 {
		t.Errorf("matches = %d, want 5", got)
	}
	if strings.Contains(h.m.View(), "›") {
		t.Error("single page of results should hide the pagination bar")
	}
}

func TestCreateFormValidation(t *testing.T) {
	h := newHarness(t, 1)

	h.key("c")
	if h.m.form == nil {
		t.Fatal("c should open the form")
	}
	h.key("ab")
	if cmd := h.key("enter"); cmd != nil {
		t.Fatal("invalid draft must not submit")
	}
	if h.m.form.err == "" {
		t.Error("expected a validation message")
	}
	if h.api.Calls(notehubtest.RouteCreate) != 0 {
		t.Error("create endpoint should not be called")
	}

	h.key("esc")
	if h.m.form != nil {
		t.Error("esc should close the form")
	}
}

func TestCreateReturnsToFirstPage(t *testing.T) {
	h := newHarness(t, 13)
	h.exec(t, h.key("n"))

	h.key("c")
	h.key("Buy milk")
	h.exec(t, h.key("enter"))

	if h.m.form != nil {
		t.Fatal("form should close after a successful create")
	}
	if got := h.m.deps.Queries.Page(); got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
	notes := h.m.notes()
	if len(notes) == 0 || notes[0].Title != "Buy milk" {
		t.Errorf("newest note not first: %+v", notes)
	}
	if !strings.Contains(h.m.status, "Buy milk") {
		t.Errorf("status = %q", h.m.status)
	}
}

func TestCreateFailureKeepsDraft(t *testing.T) {
	h := newHarness(t, 1)
	h.api.FailNext(notehubtest.RouteCreate, 500, 1)

	h.key("c")
	h.key("Keep me")
	h.exec(t, h.key("enter"))

	if h.m.form == nil {
		t.Fatal("form should stay open after a failed create")
	}
	if h.m.form.title.Value() != "Keep me" {
		t.Errorf("draft title = %q", h.m.form.title.Value())
	}
	if !strings.Contains(h.m.form.err, "Server error") {
		t.Errorf("form err = %q", h.m.form.err)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, 3)

	h.key("d")
	if h.m.confirmDelete == "" {
		t.Fatal("d should ask for confirmation")
	}
	if cmd := h.key("n"); cmd != nil {
		t.Fatal("declining must not delete")
	}

	h.key("d")
	h.exec(t, h.key("y"))
	if got := len(h.m.notes()); got != 2 {
		t.Errorf("notes = %d, want 2", got)
	}
	if h.api.Store.Len() != 2 {
		t.Errorf("server notes = %d, want 2", h.api.Store.Len())
	}
}

func TestSupersededLoadIsIgnored(t *testing.T) {
	h := newHarness(t, 2)
	before := h.m.snap

	h.m.loading = true
	h.m.Update(loadedMsg{err: query.ErrSuperseded})
	if !h.m.loading {
		t.Error("superseded result should not settle the load")
	}
	if h.m.snap.Result != before.Result {
		t.Error("superseded result should not replace the snapshot")
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(pagination.NewBar(1, 1)); got != "" {
		t.Errorf("single page bar = %q, want empty", got)
	}
	got := renderBar(pagination.NewBar(1, 3))
	for _, want := range []string{"1", "2", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("bar %q missing %s", got, want)
		}
	}
}

func TestRefreshKeyRefetchesCurrentPage(t *testing.T) {
	h := newHarness(t, 3)
	before := h.api.Calls(notehubtest.RouteList)

	h.exec(t, h.key("r"))
	if got := h.api.Calls(notehubtest.RouteList) - before; got != 1 {
		t.Errorf("list calls = %d, want 1", got)
	}
	if h.m.loading || h.m.err != nil {
		t.Errorf("loading = %v, err = %v", h.m.loading, h.m.err)
	}
}

func TestFormCloseEventClosesSubmittingForm(t *testing.T) {
	h := newHarness(t, 1)

	h.key("c")
	h.m.Update(eventMsg{event: events.Event{Type: events.FormClose}})
	if h.m.form == nil {
		t.Fatal("an idle form should ignore form.close")
	}

	h.m.form.submitting = true
	h.m.Update(eventMsg{event: events.Event{Type: events.FormClose}})
	if h.m.form != nil {
		t.Error("form.close should close a submitting form")
	}
}

func TestFetchEventsDriveLoadingState(t *testing.T) {
	h := newHarness(t, 1)
	key := h.m.deps.Queries.Key()

	h.m.Update(eventMsg{event: events.Event{Type: events.NotesFetching, Data: query.Key{Page: 9}}})
	if h.m.loading {
		t.Error("fetching another key should not mark the view loading")
	}
	h.m.Update(eventMsg{event: events.Event{Type: events.NotesFetching, Data: key}})
	if !h.m.loading {
		t.Error("fetching the current key should mark the view loading")
	}

	failed := query.Snapshot{
		Key:    key,
		Status: query.StatusFailed,
		Err:    &apperr.RequestError{Kind: apperr.KindAuthFailure, Status: 401},
	}
	h.m.Update(eventMsg{event: events.Event{Type: events.NotesFailed, Data: failed}})
	if h.m.loading {
		t.Error("notes.failed should settle loading")
	}
	if !strings.Contains(h.m.View(), "Not authorized") {
		t.Errorf("view missing auth error:\n%s", h.m.View())
	}
}

func TestLatestKeepsNewestTerm(t *testing.T) {
	ch := make(chan string, 1)
	sink := latest(ch)
	sink("a")
	sink("ab")
	sink("abc")
	if got := <-ch; got != "abc" {
		t.Errorf("term = %q, want abc", got)
	}
	select {
	case got := <-ch:
		t.Errorf("unexpected extra term %q", got)
	default:
	}
}
