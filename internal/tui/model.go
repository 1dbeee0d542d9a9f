// Package tui is the interactive terminal surface: a searchable, paginated
// note list with a modal create form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notehub/internal/apperr"
	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/models"
	"github.com/starford/notehub/internal/mutation"
	"github.com/starford/notehub/internal/pagination"
	"github.com/starford/notehub/internal/query"
	"github.com/starford/notehub/internal/search"
)

// Deps are the coordinators the model drives.
type Deps struct {
	Queries   *query.Coordinator
	Mutations *mutation.Coordinator
	Pages     *pagination.Controller
	Search    *search.Controller

	// Commits carries terms committed by Search; Events carries broker
	// events. Either may be nil.
	Commits <-chan string
	Events  <-chan events.Event
}

type loadedMsg struct {
	snap query.Snapshot
	err  error
}

type searchCommittedMsg struct {
	term string
}

type eventMsg struct {
	event events.Event
}

type createdMsg struct {
	note *models.Note
	err  error
}

type deletedMsg struct {
	note *models.Note
	err  error
}

// Model is the bubbletea model of the note browser.
type Model struct {
	ctx  context.Context
	deps Deps

	input     textinput.Model
	searching bool

	snap    query.Snapshot
	loading bool
	cursor  int

	form          *noteForm
	confirmDelete string

	status string
	err    error
	width  int
}

// NewModel creates the browser model. ctx bounds every request it issues.
func NewModel(ctx context.Context, deps Deps) *Model {
	in := textinput.New()
	in.Placeholder = "Search notes"
	in.Prompt = "/ "

	return &Model{
		ctx:   ctx,
		deps:  deps,
		input: in,
		snap:  deps.Queries.Snapshot(),
	}
}

// Init starts the first load and the commit and event listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForCommit(), m.waitForEvent())
}

func (m *Model) waitForCommit() tea.Cmd {
	ch, ctx := m.deps.Commits, m.ctx
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case term := <-ch:
			return searchCommittedMsg{term: term}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	ch, ctx := m.deps.Events, m.ctx
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			return eventMsg{event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) load() tea.Cmd {
	m.loading = true
	m.snap = m.deps.Queries.Snapshot()
	q, ctx := m.deps.Queries, m.ctx
	return func() tea.Msg {
		snap, err := q.Load(ctx)
		return loadedMsg{snap: snap, err: err}
	}
}

func (m *Model) refetch() tea.Cmd {
	m.loading = true
	q, ctx := m.deps.Queries, m.ctx
	return func() tea.Msg {
		snap, err := q.Refetch(ctx)
		return loadedMsg{snap: snap, err: err}
	}
}

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		if errors.Is(msg.err, query.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		m.snap = msg.snap
		m.err = msg.err
		m.clampCursor()
		return m, nil

	case searchCommittedMsg:
		m.cursor = 0
		return m, tea.Batch(m.load(), m.waitForCommit())

	case eventMsg:
		return m, tea.Batch(m.handleEvent(msg.event), m.waitForEvent())

	case createdMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.submitting = false
				m.form.err = describe(msg.err)
			}
			return m, nil
		}
		m.form = nil
		m.cursor = 0
		m.status = fmt.Sprintf("Created %q", msg.note.Title)
		return m, m.load()

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %q", msg.note.Title)
		return m, m.load()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.deps.Search.Stop()
			return m, tea.Quit
		}
		switch {
		case m.form != nil:
			return m, m.updateForm(msg)
		case m.confirmDelete != "":
			return m, m.updateConfirm(msg)
		case m.searching:
			return m, m.updateSearch(msg)
		}
		return m, m.updateList(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(ev events.Event) tea.Cmd {
	current := m.deps.Queries.Key()

	switch ev.Type {
	case events.ViewChanged, events.NotesInvalidated:
		m.snap = m.deps.Queries.Snapshot()
	case events.NotesFetching:
		if key, ok := ev.Data.(query.Key); ok && key == current {
			m.loading = true
		}
	case events.NotesLoaded, events.NotesFailed:
		if snap, ok := ev.Data.(query.Snapshot); ok && snap.Key == current {
			m.loading = false
			m.snap = snap
			m.err = snap.Err
			m.clampCursor()
		}
	case events.FormClose:
		if m.form != nil && m.form.submitting {
			m.form = nil
		}
	case events.ListRefresh:
		if m.form == nil {
			return m.load()
		}
	}
	return nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		m.deps.Search.Stop()
		return tea.Quit
	case "/":
		m.searching = true
		return m.input.Focus()
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n", "right":
		if m.deps.Pages.Next() {
			m.cursor = 0
			return m.load()
		}
	case "p", "left":
		if m.deps.Pages.Prev() {
			m.cursor = 0
			return m.load()
		}
	case "r":
		return m.refetch()
	case "c":
		m.form = newNoteForm()
		m.status = ""
	case "d":
		if note, ok := m.selected(); ok && !m.deps.Mutations.DeleteInFlight() {
			m.confirmDelete = note.ID
		}
	default:
		if p, err := strconv.Atoi(msg.String()); err == nil {
			if m.deps.Pages.RequestPage(p) {
				m.cursor = 0
				return m.load()
			}
		}
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.input.Blur()
		m.deps.Search.Flush()
		return nil
	case "esc":
		m.searching = false
		m.input.Blur()
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.deps.Search.Input(v)
	}
	return cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	id := m.confirmDelete
	m.confirmDelete = ""
	if msg.String() != "y" {
		return nil
	}
	mut, ctx := m.deps.Mutations, m.ctx
	return func() tea.Msg {
		note, err := mut.SubmitDelete(ctx, id)
		return deletedMsg{note: note, err: err}
	}
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	f := m.form
	if f.submitting {
		return nil
	}
	switch msg.String() {
	case "esc":
		m.form = nil
		return nil
	case "enter":
		draft := f.draft()
		if err := draft.Validate(); err != nil {
			f.err = err.Error()
			return nil
		}
		f.err = ""
		f.submitting = true
		mut, ctx := m.deps.Mutations, m.ctx
		return func() tea.Msg {
			note, err := mut.SubmitCreate(ctx, draft)
			return createdMsg{note: note, err: err}
		}
	}
	return f.update(msg)
}

func (m *Model) notes() []models.Note {
	if m.snap.Result == nil {
		return nil
	}
	return m.snap.Result.Notes
}

func (m *Model) selected() (models.Note, bool) {
	notes := m.notes()
	if m.cursor < 0 || m.cursor >= len(notes) {
		return models.Note{}, false
	}
	return notes[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.notes()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// View renders the model.
func (m *Model) View() string {
	if m.form != nil {
		return m.form.view()
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("NoteHub"))
	if m.loading {
		b.WriteString(dimStyle.Render("  loading..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if s := m.deps.Search; s.State() == search.StatePending {
		b.WriteString(dimStyle.Render("  (typing)"))
	}
	b.WriteString("\n\n")

	notes := m.notes()
	switch {
	case m.snap.Result == nil && m.err == nil:
		b.WriteString(dimStyle.Render("Loading notes...") + "\n")
	case m.snap.Result != nil && len(notes) == 0:
		b.WriteString(dimStyle.Render("No notes found.") + "\n")
	}

	for i, n := range notes {
		line := "  " + n.Title
		if i == m.cursor {
			line = selectedStyle.Render("> " + n.Title)
		}
		line += " " + tagStyle.Render(string(n.Tag))
		if m.snap.Stale {
			line = dimStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if bar := renderBar(m.deps.Pages.Bar()); bar != "" {
		b.WriteString("\n" + bar + "\n")
	}

	if m.confirmDelete != "" {
		b.WriteString("\n" + errorStyle.Render("Delete selected note? (y/n)") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(describe(m.err)) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("/ search · n/p page · c create · d delete · r refresh · q quit"))
	return b.String()
}

func renderBar(bar pagination.Bar) string {
	if !bar.Visible {
		return ""
	}
	parts := make([]string, 0, len(bar.Items)+2)
	if bar.PrevDisabled {
		parts = append(parts, dimStyle.Render("‹"))
	} else {
		parts = append(parts, "‹")
	}
	for _, it := range bar.Items {
		switch {
		case it.Ellipsis:
			parts = append(parts, dimStyle.Render("…"))
		case it.Page == bar.Current:
			parts = append(parts, currentPage.Render(strconv.Itoa(it.Page)))
		default:
			parts = append(parts, strconv.Itoa(it.Page))
		}
	}
	if bar.NextDisabled {
		parts = append(parts, dimStyle.Render("›"))
	} else {
		parts = append(parts, "›")
	}
	return strings.Join(parts, " ")
}

func describe(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindAuthFailure:
		return "Not authorized: check the API token."
	case apperr.KindNetwork:
		return "Network error: " + err.Error()
	case apperr.KindServerError:
		return "Server error: " + err.Error()
	}
	return err.Error()
}
