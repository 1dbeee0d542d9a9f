package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notehub/internal"
	"github.com/starford/notehub/internal/mcpserver"
	"github.com/starford/notehub/internal/models"
	"github.com/starford/notehub/internal/search"
	"github.com/starford/notehub/internal/tui"
	pkgconfig "github.com/starford/notehub/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if token := cmd.String("token"); token != "" {
		cfg.API.Token = token
	}
	return cfg, nil
}

// run loads the config and runs surface against a freshly wired app.
func run(ctx context.Context, cmd *cli.Command, surface func(context.Context, *internal.App) error, opts ...internal.Option) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts = append([]internal.Option{internal.WithConfig(cfg)}, opts...)
	if err := internal.Run(ctx, surface, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	page := int(cmd.Int("page"))
	term := cmd.String("search")

	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		app.Queries.SetSearch(term)
		if !app.Queries.SetPage(page) && page != 1 {
			return fmt.Errorf("invalid page %d", page)
		}

		snap, err := app.Queries.Load(ctx)
		if err != nil {
			return err
		}
		res := snap.Result
		if res.TotalPages > 0 && page > res.TotalPages {
			return fmt.Errorf("page %d is out of range (1-%d)", page, res.TotalPages)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTAG\tCREATED")
		for _, n := range res.Notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Title, n.Tag, n.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if len(res.Notes) == 0 {
			fmt.Println("No notes found.")
		}
		fmt.Printf("\nPage %d of %d (%d notes)\n", page, max(res.TotalPages, 1), res.TotalItems)
		return nil
	})
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	tag, err := models.ParseTag(cmd.String("tag"))
	if err != nil {
		return err
	}
	draft := models.NoteDraft{
		Title:   cmd.String("title"),
		Content: cmd.String("content"),
		Tag:     tag,
	}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("invalid note: %w", err)
	}

	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		note, err := app.Mutations.SubmitCreate(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Println(note.ID)
		return nil
	})
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("note id is required")
	}

	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		note, err := app.Mutations.SubmitDelete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s (%s)\n", note.ID, note.Title)
		return nil
	})
}

func browseAction(ctx context.Context, cmd *cli.Command) error {
	// Logs would corrupt the alternate screen.
	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		deps := tui.Deps{
			Queries:   app.Queries,
			Mutations: app.Mutations,
			Pages:     app.Pages,
		}
		return tui.Run(ctx, deps, app.Broker, func(onCommit func(string)) *search.Controller {
			return app.NewSearch(onCommit)
		})
	}, internal.WithLogOutput(io.Discard))
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, func(_ context.Context, app *internal.App) error {
		return mcpserver.New(app.Queries, app.Mutations, version).ServeStdio()
	})
}

func main() {
	cmd := &cli.Command{
		Name:    "notehub",
		Usage:   "Browse, search and edit notes stored in the NoteHub service",
		Version: version,
		Action:  browseAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API bearer token (overrides the config file)",
				Sources: cli.EnvVars("NOTEHUB_TOKEN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print one page of notes",
				Action: listAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1, Usage: "Page number"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by title or content"},
				},
			},
			{
				Name:   "create",
				Usage:  "Create a note",
				Action: createAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Note title"},
					&cli.StringFlag{Name: "content", Usage: "Note body"},
					&cli.StringFlag{Name: "tag", Value: string(models.TagTodo), Usage: "Todo, Work, Personal, Meeting or Shopping"},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a note by id",
				ArgsUsage: "<id>",
				Action:    deleteAction,
			},
			{
				Name:   "browse",
				Usage:  "Open the interactive note browser",
				Action: browseAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve NoteHub tools over MCP stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
