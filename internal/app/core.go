package app

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/cadence/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/cadence/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/adapter/metadata"
	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/cadence/internal/config"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/ports"
	"github.com/tejashwikalptaru/cadence/internal/service"
)

// Core holds the storage, audio engine and services shared by the player
// window and the command line.
type Core struct {
	Config *config.Config
	Logger *slog.Logger

	Store  *sqlite.Store
	Bus    ports.EventBus
	Engine ports.AudioEngine

	Playback    *service.PlaybackService
	Queue       *service.QueueService
	Library     *service.LibraryService
	Listening   *service.ListeningService
	Profiles    *service.ProfileService
	Preferences *service.PreferenceService // nil without a preferences store
}

// NewLogger builds the application logger from the logging section.
func NewLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level, slog.LevelInfo),
		Format: cfg.Logging.Format,
	})
}

// NewCore opens the database and audio engine and wires the services.
// prefs may be nil, in which case the active profile is not remembered and
// Preferences stays nil. The caller activates a profile with Start.
func NewCore(ctx context.Context, cfg *config.Config, log *slog.Logger, prefs ports.PreferencesRepository) (*Core, error) {
	if log == nil {
		log = NewLogger(cfg)
	}
	c := &Core{Config: cfg, Logger: log}

	store, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open library database")
	}
	c.Store = store

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log.With(slog.String("component", "eventbus")))
	c.Bus = bus

	engine, err := newEngine(cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c.Engine = engine

	volume := cfg.Audio.Volume
	if prefs != nil {
		c.Preferences = service.NewPreferenceService(log, prefs, bus)
		volume = c.Preferences.GetVolume()
	}

	c.Playback = service.NewPlaybackService(log, engine, bus, service.WithInitialVolume(volume))
	c.Queue = service.NewQueueService(log, c.Playback, store.Queue(), bus,
		service.WithRestartThreshold(cfg.Queue.RestartThreshold()),
		service.WithSaveInterval(cfg.Queue.SaveInterval()),
	)
	c.Library = service.NewLibraryService(log,
		service.Catalog{
			Tracks:  store.Tracks(),
			Artists: store.Artists(),
			Albums:  store.Albums(),
			Genres:  store.Genres(),
		},
		metadata.NewReader(log, beep.ProbeDuration),
		bus,
		cfg.Library.Extensions,
	)
	c.Listening = service.NewListeningService(log, store.History(), store.Likes(), bus)
	c.Profiles = service.NewProfileService(log, store.Profiles(), prefs, bus)

	return c, nil
}

func newEngine(cfg *config.Config, log *slog.Logger) (ports.AudioEngine, error) {
	var engine ports.AudioEngine
	if cfg.Audio.Mock {
		engine = mock.NewEngine(mock.WithRealtime())
		log.Info("using silent audio engine")
	} else {
		e := beep.NewEngine()
		e.SetLogger(log.With(slog.String("engine", "beep")))
		engine = e
	}
	if err := engine.Initialize(cfg.Audio.SampleRate, cfg.Audio.Buffer()); err != nil {
		return nil, errors.Wrap(err, "failed to initialize audio engine")
	}
	return engine, nil
}

// Start activates profile, or the remembered one when preferences are
// available, which restores that profile's queue.
func (c *Core) Start(ctx context.Context, profile string) error {
	active, err := c.Profiles.Start(ctx, profile)
	if err != nil {
		return errors.Wrapf(err, "failed to activate profile %q", profile)
	}
	c.Logger.Info("profile active", slog.String("profile", active.Name))
	return nil
}

// Close stops the services in reverse order of creation, saving the queue,
// and releases the engine and the database. Errors are logged.
func (c *Core) Close() {
	warn := func(what string, err error) {
		if err != nil {
			c.Logger.Warn("failed to shut down "+what, slog.Any("error", err))
		}
	}

	warn("listening service", c.Listening.Shutdown())
	warn("library service", c.Library.Shutdown())
	warn("queue service", c.Queue.Shutdown())
	if c.Preferences != nil {
		warn("preference service", c.Preferences.Shutdown())
	}
	warn("playback service", c.Playback.Shutdown())
	warn("audio engine", c.Engine.Shutdown())
	warn("database", c.Store.Close())
	warn("event bus", c.Bus.Close())
}
