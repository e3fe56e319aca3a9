// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the gbsearch daemon: create, start, stop.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/corey/gbsearch/internal/adapters/ahocorasick"
	"github.com/corey/gbsearch/internal/adapters/bbolt"
	"github.com/corey/gbsearch/internal/adapters/datafile"
	fsw "github.com/corey/gbsearch/internal/adapters/fsnotify"
	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/adapters/web"
	"github.com/corey/gbsearch/internal/config"
	"github.com/corey/gbsearch/internal/domain/index"
	"github.com/corey/gbsearch/internal/ports"
	"github.com/google/uuid"
)

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Settings    config.Config

	Store   ports.DatasetStore
	Engine  *index.SearchEngine
	Scanner *ahocorasick.Scanner
	Watcher ports.Watcher // nil when watching is off
	Server  *socket.Server
	Web     *web.Server // nil unless Config.HTTP
	Monitor *ResultMonitor

	// bus carries "new dataset" notifications; the engine is subscribed.
	bus    index.EventSupport
	logger *slog.Logger

	mu      sync.Mutex // serializes engine access and dataset swaps
	dataset *ports.Dataset

	closers  []func() error
	httpPort int
}

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot string
	Settings    config.Config
	DBPath      string       // default: .gbsearch/gbsearch.db
	SocketPath  string       // default: socket.SocketPath(ProjectRoot)
	HTTP        bool         // also serve the JSON API on localhost
	HTTPPort    int          // default: web.DefaultPort(ProjectRoot); <0 means any free port
	Logger      *slog.Logger // default: slog.Default()
}

// New creates an App with all dependencies wired. Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	paths := NewPaths(cfg.ProjectRoot)
	if cfg.DBPath == "" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("create %s: %w", paths.Root, err)
		}
		cfg.DBPath = paths.DB
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = socket.SocketPath(cfg.ProjectRoot)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	store, err := bbolt.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		ProjectRoot: cfg.ProjectRoot,
		Paths:       paths,
		Settings:    cfg.Settings,
		Store:       store,
		Scanner:     ahocorasick.NewScanner(nil),
		Monitor:     NewResultMonitor(cfg.Logger),
		logger:      cfg.Logger,
		closers:     []func() error{store.Close},
	}

	if cfg.Settings.Watch {
		w, err := fsw.NewWatcher()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
		a.closers = append([]func() error{w.Stop}, a.closers...)
	}

	a.Engine = index.NewSearchEngine(
		index.WithAutoWildcard(cfg.Settings.AutoWildcard),
		index.WithCaseSensitive(cfg.Settings.CaseSensitive),
		index.WithScanner(a.Scanner),
		index.WithLogger(cfg.Logger),
	)
	a.Engine.Subscribe(a.Monitor)
	a.bus.Subscribe(a.Engine)

	a.Server = socket.NewServer(a, cfg.SocketPath, cfg.Logger)
	if cfg.HTTP {
		a.Web = web.NewServer(a, paths.HTTPPort, cfg.Logger)
		switch {
		case cfg.HTTPPort == 0:
			a.httpPort = web.DefaultPort(cfg.ProjectRoot)
		case cfg.HTTPPort > 0:
			a.httpPort = cfg.HTTPPort
		}
	}
	return a, nil
}

// Start restores the current dataset, if any, then starts the socket server.
func (a *App) Start() error {
	if err := a.restoreCurrent(); err != nil {
		return err
	}
	if err := a.Server.Start(); err != nil {
		return err
	}
	if a.Web != nil {
		if err := a.Web.Start(a.httpPort); err != nil {
			a.Server.Stop()
			return err
		}
	}
	return nil
}

// Stop shuts down the servers, the watcher and the store.
func (a *App) Stop() error {
	if a.Web != nil {
		a.Web.Stop()
	}
	a.Server.Stop()
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// restoreCurrent indexes the dataset recorded as current in the store.
func (a *App) restoreCurrent() error {
	id, err := a.Store.Current()
	if err != nil {
		return fmt.Errorf("read current dataset: %w", err)
	}
	if id == uuid.Nil {
		a.logger.Info("no current dataset")
		return nil
	}
	ds, err := a.Store.LoadDataset(id)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", id, err)
	}
	if ds == nil {
		a.logger.Warn("current dataset missing from store", "id", id)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.activate(ds)
	return nil
}

// LoadFile reads a dataset (manifest or gene table), stores it, makes it
// current and publishes it to the search engine.
func (a *App) LoadFile(path string) (*ports.Dataset, error) {
	ds, err := datafile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Store.SaveDataset(ds); err != nil {
		return nil, fmt.Errorf("save dataset %s: %w", ds.Name, err)
	}
	if err := a.Store.SetCurrent(ds.ID); err != nil {
		return nil, err
	}
	a.activate(ds)
	return ds, nil
}

// UseDataset makes a stored dataset current, by name.
func (a *App) UseDataset(name string) (*ports.Dataset, error) {
	ds, err := a.Store.LoadDatasetByName(name)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("%q: %w", name, ports.ErrDatasetNotFound)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Store.SetCurrent(ds.ID); err != nil {
		return nil, err
	}
	a.activate(ds)
	return ds, nil
}

// Dataset returns the dataset currently indexed, or nil.
func (a *App) Dataset() *ports.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dataset
}

// activate publishes ds as the new dataset and re-targets the watcher.
// Caller holds a.mu.
func (a *App) activate(ds *ports.Dataset) {
	a.dataset = ds
	a.bus.Fire(index.Event{Source: a, Action: index.ActionNewDataset, Dataset: ds})
	a.logger.Info("dataset active",
		"name", ds.Name, "id", ds.ID, "tracks", len(ds.Tracks), "features", ds.FeatureCount())

	if a.Watcher != nil && len(ds.Sources) > 0 {
		if err := a.Watcher.Watch(ds.Sources, a.onDatasetFileChanged); err != nil {
			a.logger.Warn("watch dataset files", "name", ds.Name, "error", err)
		}
	}
}
