// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/cadence/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/cadence/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/cadence/internal/config"
)

// AppID identifies the application to Fyne, which keys the preferences file by it.
const AppID = "io.github.tejashwikalptaru.cadence"

// Options configures NewApplication.
type Options struct {
	// Config is the loaded configuration. Required.
	Config *config.Config

	// Logger overrides the logger built from Config.Logging.
	Logger *slog.Logger

	// FyneApp allows injecting a test Fyne app (nil for production).
	FyneApp fyne.App
}

// Application is the player window and everything behind it.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
type Application struct {
	*Core

	fyneApp    fyne.App
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
}

// NewApplication creates a new application with all dependencies wired and
// the configured profile activated.
func NewApplication(ctx context.Context, opts Options) (*Application, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	log := opts.Logger
	if log == nil {
		log = NewLogger(opts.Config)
	}

	fyneApp := opts.FyneApp
	if fyneApp == nil {
		fyneApp = fyneapp.NewWithID(AppID)
	}
	log.Info("initializing application", slog.String("app_id", AppID), slog.String("version", GetVersionInfo().Version))

	prefs := memory.NewPreferencesRepository(fyneApp.Preferences())
	core, err := NewCore(ctx, opts.Config, log, prefs)
	if err != nil {
		return nil, err
	}
	a := &Application{Core: core, fyneApp: fyneApp}

	for _, folder := range opts.Config.Library.Folders {
		if err := core.Preferences.AddScanFolder(folder); err != nil {
			log.Warn("failed to add configured folder", slog.String("folder", folder), slog.Any("error", err))
		}
	}

	if err := core.Start(ctx, opts.Config.Profile); err != nil {
		core.Close()
		return nil, err
	}
	core.Queue.StartAutoSave()

	a.mainWindow = fyneui.NewMainWindow(fyneApp)
	a.presenter = fyneui.NewPresenter(
		log.With(slog.String("component", "presenter")),
		fyneui.Services{
			Playback:    core.Playback,
			Queue:       core.Queue,
			Library:     core.Library,
			Listening:   core.Listening,
			Profiles:    core.Profiles,
			Preferences: core.Preferences,
		},
		core.Bus,
		a.mainWindow,
	)
	a.mainWindow.SetPresenter(a.presenter)

	return a, nil
}

// Presenter returns the presenter driving the main window.
func (a *Application) Presenter() *fyneui.Presenter {
	return a.presenter
}

// Run shows the main window and blocks until it is closed.
func (a *Application) Run() {
	a.Logger.Info("Cadence started", slog.String("database", a.Store.Path()))
	a.mainWindow.ShowAndRun()
}

// Shutdown stops the presenter, then the services, engine and database.
// It's safe to call multiple times.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.Logger.Info("shutting down application")
		a.presenter.Shutdown()
		a.Core.Close()
		a.Logger.Info("application shutdown complete")
	})
}
