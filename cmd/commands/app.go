package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/searchsync/config"
	"github.com/ncobase/searchsync/data"
	dc "github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/data/meilisearch/client"
	"github.com/ncobase/searchsync/data/store"
	"github.com/ncobase/searchsync/dispatch"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/meili"
	"github.com/ncobase/searchsync/search/searchtest"
	"github.com/ncobase/searchsync/tracing"
	"github.com/ncobase/searchsync/version"
)

var errEngineDisabled = errors.New("search engine is disabled (data.search.engine: null)")

// App holds the components the subcommands share.
type App struct {
	Config *config.Config
	Logger *logger.Logger
	Data   *data.Data

	// Manager is nil with the null engine.
	Manager  *search.IndexManager
	Engine   search.Engine
	Registry *dispatch.Registry
	Mux      *queue.Mux

	// Queue is nil unless data.queue.enabled is set.
	Queue      queue.Connection
	// Dispatcher is the hook host write paths call after they change a
	// record. The subcommands write through Engine directly.
	Dispatcher *dispatch.Dispatcher

	closers []func()
}

// Factory builds an App from the configuration file at path.
type Factory func(ctx context.Context, path string) (*App, error)

// Load reads the configuration at path and builds the App it describes.
func Load(ctx context.Context, path string) (*App, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg)
}

// NewApp connects the logger, tracer, search backend and primary stores
// described by cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var closers []func()
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	info := version.GetVersionInfo()
	l := logger.StandardLogger()
	l.SetVersion(info.Version)
	cleanup, err := l.Init(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	closers = append(closers, cleanup)

	var tc *config.Tracer
	if cfg.Observes != nil {
		tc = cfg.Observes.Tracer
	}
	shutdown, err := tracing.Setup(ctx, tc, info)
	if err != nil {
		return fail(fmt.Errorf("init tracing: %w", err))
	}
	closers = append(closers, func() {
		if err := shutdown(context.Background()); err != nil {
			l.Warnf(context.Background(), "tracer shutdown: %v", err)
		}
	})

	backend, err := newBackend(ctx, cfg.Data.Search)
	if err != nil {
		return fail(err)
	}

	d, closeData, err := data.New(ctx, cfg.Data)
	if err != nil {
		return fail(fmt.Errorf("connect data stores: %w", err))
	}
	closers = append(closers, closeData)

	app, err := Assemble(ctx, cfg, backend, d)
	if err != nil {
		return fail(err)
	}
	app.closers = append(closers, app.closers...)
	return app, nil
}

// newBackend returns the backend named by s.Engine, or nil for the null
// engine.
func newBackend(ctx context.Context, s *dc.Search) (search.Backend, error) {
	switch s.Engine {
	case dc.EngineNull:
		return nil, nil
	case dc.EngineMemory:
		return searchtest.New(), nil
	}

	drv, err := data.GetSearchDriver(dc.EngineMeilisearch)
	if err != nil {
		return nil, err
	}
	conn, err := drv.Connect(ctx, s.Meilisearch)
	if err != nil {
		return nil, err
	}
	c, ok := conn.(*client.Client)
	if !ok {
		return nil, fmt.Errorf("meilisearch driver returned %T", conn)
	}

	var b search.Backend = meili.New(c)
	if s.Breaker != nil && s.Breaker.Enabled {
		b = meili.NewBreakerBackend(b, meili.BreakerConfig{
			Name:        dc.EngineMeilisearch,
			MaxFailures: s.Breaker.MaxFailures,
			OpenTimeout: s.Breaker.OpenTimeout,
		})
	}
	return b, nil
}

// Assemble wires the sync engine, model registry, queue and dispatcher on
// top of an already connected backend and data layer. A nil backend selects
// the null engine.
func Assemble(ctx context.Context, cfg *config.Config, backend search.Backend, d *data.Data) (*App, error) {
	s := cfg.Data.Search
	app := &App{
		Config: cfg,
		Logger: logger.StandardLogger(),
		Data:   d,
		Engine: search.NullEngine{},
		Mux:    queue.NewMux(),
	}

	if backend != nil {
		app.Manager = search.NewIndexManager(backend,
			search.WithPrefix(s.IndexPrefix),
			search.WithBatchSize(s.BatchSize),
			search.WithTaskTimeout(s.TaskTimeout),
			search.WithPollInterval(s.PollInterval),
			search.WithDefaultSettings(search.Settings(s.IndexSettings)),
			search.WithLogger(app.Logger),
		)
		opts := []search.EngineOption{search.WithDefaultLimit(s.DefaultLimit)}
		if h := s.Highlight; h != nil && h.PreTag != "" && h.PostTag != "" {
			opts = append(opts, search.WithHighlightTags(h.PreTag, h.PostTag))
		}
		app.Engine = search.NewSyncEngine(app.Manager, opts...)
	}

	specs, err := store.Specs(s)
	if err != nil {
		return nil, err
	}
	repos, err := store.OpenAll(d, specs)
	if err != nil {
		return nil, err
	}
	app.Registry = dispatch.NewRegistryFromRepositories(repos)
	dispatch.NewHandler(app.Engine, app.Registry, app.Logger).Register(app.Mux)

	dopts := []dispatch.Option{dispatch.WithLogger(app.Logger)}
	if q := cfg.Data.Queue; q != nil && q.Enabled {
		conn, err := queue.Open(ctx, q.Connection, &queue.Options{
			Queue:   q,
			Data:    cfg.Data,
			Handler: app.Mux,
			Logger:  app.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open queue %s: %w", q.Connection, err)
		}
		app.Queue = conn
		app.closers = append(app.closers, func() {
			if err := conn.Close(); err != nil {
				app.Logger.Warnf(context.Background(), "close queue: %v", err)
			}
		})
		dopts = append(dopts, dispatch.WithQueue(conn, dispatch.ResolveQueueName(q)))
	}
	app.Dispatcher = dispatch.New(app.Engine, dopts...)
	return app, nil
}

// Prototype returns the registered prototype of model.
func (a *App) Prototype(model string) (search.Searchable, error) {
	proto, ok := a.Registry.Prototype(model)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q (known: %v)", search.ErrInvalidArgument, model, a.Registry.Names())
	}
	return proto, nil
}

// Close releases everything NewApp opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
