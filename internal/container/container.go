package container

import (
	"context"
	"fmt"

	"granttrack/adapters/memory"
	"granttrack/adapters/postgres"
	"granttrack/app"
	"granttrack/internal"
	"granttrack/internal/config"
	"granttrack/internal/metrics"
	"granttrack/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Recorder

	// Repositories (data access layer)
	Repos ports.Repositories

	Tracker *app.TrackerService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config:  cfg,
		Logger:  internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)),
		Metrics: metrics.NewRecorder(),
	}, nil
}

// InitWithDatabase wires the postgres repositories
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initTracker(postgres.NewRepositories(db))
	c.Logger.Info("container initialized with database connection")
	return nil
}

// InitInMemory wires an in-process store, for tools and tests
func (c *Container) InitInMemory(store *memory.Store) {
	if store == nil {
		store = memory.NewStore()
	}
	c.initTracker(store.Repositories())
	c.Logger.Debug("container initialized with in-memory store")
}

func (c *Container) initTracker(repos ports.Repositories) {
	c.Repos = repos
	c.Tracker = app.NewTrackerService(repos, app.OptionsFromConfig(c.Config), c.Metrics, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
