package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/search"
)

// Run starts the browser and blocks until the user quits or ctx ends.
// newSearch builds the search box around the given commit sink.
func Run(ctx context.Context, deps Deps, broker *events.Broker, newSearch func(onCommit func(string)) *search.Controller) error {
	p, stop := NewProgram(ctx, deps, broker, newSearch, tea.WithAltScreen())
	defer stop()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// NewProgram wires the model into a program. Search commits and broker
// events reach the model through listener commands. stop releases the
// search timer and the broker subscription.
func NewProgram(ctx context.Context, deps Deps, broker *events.Broker, newSearch func(onCommit func(string)) *search.Controller, opts ...tea.ProgramOption) (*tea.Program, func()) {
	commits := make(chan string, 1)
	deps.Commits = commits
	deps.Search = newSearch(latest(commits))

	var sub chan events.Event
	if broker != nil {
		sub = broker.Subscribe()
		deps.Events = sub
	}

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, deps), opts...)

	stop := func() {
		deps.Search.Stop()
		if sub != nil {
			broker.Unsubscribe(sub)
		}
	}
	return p, stop
}

// latest returns a sink that never blocks. An unread term is replaced by
// the newer one.
func latest(ch chan string) func(string) {
	return func(term string) {
		for {
			select {
			case ch <- term:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}
