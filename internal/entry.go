// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notehub/internal/events"
	"github.com/starford/notehub/internal/mutation"
	"github.com/starford/notehub/internal/notehub"
	"github.com/starford/notehub/internal/pagination"
	"github.com/starford/notehub/internal/query"
	"github.com/starford/notehub/internal/search"
)

// App bundles the client and coordinators shared by every surface.
type App struct {
	Config    *Config
	Logger    *slog.Logger
	Client    *notehub.Client
	Broker    *events.Broker
	Queries   *query.Coordinator
	Mutations *mutation.Coordinator
	Pages     *pagination.Controller
}

// New wires the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("base_url", cfg.API.BaseURL),
		slog.Bool("token_set", cfg.API.Token != ""),
		slog.Int("per_page", cfg.Query.PerPage),
		slog.Duration("debounce", cfg.Search.Debounce),
		slog.String("log_level", cfg.App.LogLevel.String()))

	clientOpts := []notehub.ClientOption{notehub.WithLogger(logger)}
	if app.httpClient != nil {
		clientOpts = append(clientOpts, notehub.WithHTTPClient(app.httpClient))
	} else {
		clientOpts = append(clientOpts, notehub.WithTimeout(cfg.API.Timeout))
	}
	client := notehub.NewClient(cfg.API.BaseURL, cfg.API.Token, clientOpts...)

	broker := events.NewBroker(500 * time.Millisecond)

	queries := query.New(client,
		query.WithPerPage(cfg.Query.PerPage),
		query.WithRetry(cfg.Query.Retry),
		query.WithRetryDelay(cfg.Query.RetryDelay),
		query.WithLogger(logger),
		query.WithPublisher(broker),
	)

	mutations := mutation.New(client, queries,
		mutation.WithLogger(logger),
		mutation.WithPublisher(broker),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Broker:    broker,
		Queries:   queries,
		Mutations: mutations,
		Pages:     pagination.New(queries),
	}, nil
}

// NewSearch returns a debounced search box that commits into the query
// coordinator. onCommit, if non-nil, runs after each commit.
func (a *App) NewSearch(onCommit func(term string), opts ...search.Option) *search.Controller {
	return search.New(a.Config.Search.Debounce, func(term string) {
		a.Queries.SetSearch(term)
		if onCommit != nil {
			onCommit(term)
		}
	}, opts...)
}

// Close releases background resources.
func (a *App) Close() {
	a.Broker.Close()
}

// Run builds the application and runs surface until it returns, the
// context is cancelled, or SIGINT/SIGTERM is received.
func Run(ctx context.Context, surface func(context.Context, *App) error, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.Logger
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return surface(gCtx, app)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
