package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/mutation"
	"github.com/starford/notehub/internal/notehub"
	"github.com/starford/notehub/internal/notehubtest"
	"github.com/starford/notehub/internal/pagination"
	"github.com/starford/notehub/internal/query"
	"github.com/starford/notehub/internal/search"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProgramSearchCommitsFromKeys(t *testing.T) {
	api := notehubtest.NewServer("secret")
	defer api.Close()
	api.Seed(13)

	client := notehub.NewClient(api.URL, "secret")
	queries := query.New(client, query.WithRetryDelay(0))
	broker := events.NewBroker(0)
	defer broker.Close()

	deps := Deps{
		Queries:   queries,
		Mutations: mutation.New(client, queries, mutation.WithPublisher(broker)),
		Pages:     pagination.New(queries),
	}
	newSearch := func(onCommit func(string)) *search.Controller {
		return search.New(time.Hour, func(term string) {
			queries.SetSearch(term)
			onCommit(term)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, stop := NewProgram(ctx, deps, broker, newSearch, tea.WithInput(nil), tea.WithoutRenderer())
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	send := func(msg tea.Msg) {
		t.Helper()
		sent := make(chan struct{})
		go func() {
			p.Send(msg)
			close(sent)
		}()
		select {
		case <-sent:
		case <-time.After(3 * time.Second):
			t.Fatalf("program stopped accepting input at %v", msg)
		}
	}

	waitFor(t, "first page", func() bool {
		s := queries.Snapshot()
		return s.Status == query.StatusSuccess && s.Result.TotalItems == 13
	})

	// Enter flushes the pending term from inside Update.
	send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Note 1")})
	send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, "search results", func() bool {
		s := queries.Snapshot()
		return s.View.Search == "Note 1" && s.Status == query.StatusSuccess && s.Result.TotalItems == 5
	})

	// Clearing the box commits immediately, also from inside Update.
	send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	send(tea.KeyMsg{Type: tea.KeyCtrlU})
	waitFor(t, "cleared search", func() bool {
		s := queries.Snapshot()
		return s.View.Search == "" && s.Status == query.StatusSuccess && s.Result.TotalItems == 13
	})

	send(tea.KeyMsg{Type: tea.KeyEsc})
	send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("program did not quit")
	}
}
