// Package app runs the synchronization service: it keeps the settings, owns
// the record sources, and feeds each forecast to the HTTP publisher.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
	"github.com/tartampluch/go-cycle/internal/locale"
	"github.com/tartampluch/go-cycle/internal/report"
	"github.com/tartampluch/go-cycle/internal/server"
	"github.com/tartampluch/go-cycle/internal/store"
)

// App encapsulates the settings, the engine wiring, and the background worker.
type App struct {
	Server     *server.CalendarServer
	Generator  *engine.Generator
	Translator *locale.Translator

	// OpenDB connects to the record database. Replaced in tests.
	OpenDB func(ctx context.Context, dsn string) (*sql.DB, error)

	settingsMu sync.RWMutex
	settings   config.Settings

	// syncMu serializes syncs and guards the lazily opened database.
	syncMu sync.Mutex
	db     *sql.DB

	configChan chan struct{}
	syncChan   chan struct{}
}

// New wires an App from loaded settings. The server may be nil for one-shot
// commands that never publish.
func New(s config.Settings, srv *server.CalendarServer, fetcher engine.RecordFetcher) *App {
	tr := locale.New(s.Language)
	return &App{
		Server: srv,
		Generator: &engine.Generator{
			Clock:      engine.RealClock{},
			Fetcher:    fetcher,
			Forecaster: &engine.Forecaster{},
			Labels:     calendarLabels{tr: tr},
		},
		Translator: tr,
		OpenDB:     store.Open,
		settings:   s,
		configChan: make(chan struct{}, config.ChannelBufferSize),
		syncChan:   make(chan struct{}, config.ChannelBufferSize),
	}
}

// NewServer builds the publisher for the configured port.
func NewServer(s config.Settings) *server.CalendarServer {
	return server.NewCalendarServer(strconv.Itoa(s.Server.Port))
}

// Settings returns the active settings.
func (a *App) Settings() config.Settings {
	a.settingsMu.RLock()
	defer a.settingsMu.RUnlock()
	return a.settings
}

// ApplySettings swaps in reloaded settings and wakes the worker so a new
// interval takes effect immediately. The port is only read at startup.
func (a *App) ApplySettings(s config.Settings) {
	a.settingsMu.Lock()
	a.settings = s
	a.settingsMu.Unlock()

	a.Translator.SetLanguage(s.Language)

	select {
	case a.configChan <- struct{}{}:
	default:
	}
}

// RequestSync asks the worker for an immediate sync. Requests made while one
// is already pending are merged.
func (a *App) RequestSync() {
	select {
	case a.syncChan <- struct{}{}:
	default:
	}
}

// Run starts the publisher and the periodic worker, and blocks until ctx is
// cancelled or the publisher fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.backgroundWorker(ctx)
	}()

	err := a.Server.Start(ctx)
	if err != nil {
		slog.Error(config.ErrServerStartup,
			config.LogKeyComponent, config.CompApp,
			config.LogKeyPort, a.Server.Port,
			config.LogKeyError, err)
	}

	cancel()
	wg.Wait()
	return err
}

// SyncOnce runs the pipeline with the current settings and returns the
// forecast without publishing it.
func (a *App) SyncOnce(ctx context.Context) (engine.Forecast, error) {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()

	s := a.Settings()
	if s.Source.Mode == config.SourceModePostgres {
		if err := a.ensureStore(ctx, s); err != nil {
			return engine.Forecast{}, err
		}
	}

	return a.Generator.RunSync(ctx, a.loadSyncConfig(s))
}

// Close releases the database connection, if one was opened.
func (a *App) Close() error {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	a.Generator.Store = nil
	return err
}

func (a *App) ensureStore(ctx context.Context, s config.Settings) error {
	if a.Generator.Store != nil {
		return nil
	}
	if a.OpenDB == nil {
		return errors.New(config.ErrStoreMissing)
	}

	db, err := a.OpenDB(ctx, s.Database.URL)
	if err != nil {
		return err
	}
	a.db = db
	a.Generator.Store = store.NewPeriodStore(db, slog.Default())
	slog.Info(config.MsgStoreOpened, config.LogKeyComponent, config.CompApp)
	return nil
}

// backgroundWorker manages the periodic synchronization schedule.
func (a *App) backgroundWorker(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	a.performSync(ctx, false)

	getInterval := func() time.Duration {
		return time.Duration(a.Settings().Interval()) * time.Minute
	}

	currentDuration := getInterval()
	ticker := time.NewTicker(currentDuration)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, currentDuration)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-a.configChan:
			newDuration := getInterval()
			if newDuration != currentDuration {
				log.Info(config.MsgUpdateSync, config.LogKeyOld, currentDuration, config.LogKeyNew, newDuration)
				currentDuration = newDuration
				ticker.Reset(currentDuration)
			}

		case <-a.syncChan:
			a.performSync(ctx, true)

		case <-ticker.C:
			a.performSync(ctx, false)
		}
	}
}

// performSync runs one sync and publishes the result. Failures keep the
// previously published documents in place.
func (a *App) performSync(ctx context.Context, manual bool) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompApp,
		config.LogKeyManual, manual)

	f, err := a.SyncOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error(config.MsgSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompApp)
		return
	}

	a.publish(f)
	slog.Info(config.MsgSyncSuccess, config.LogKeyComponent, config.CompApp)
}

func (a *App) publish(f engine.Forecast) {
	if a.Server == nil {
		return
	}
	a.Server.Update(f.ICS)

	doc, err := report.ForecastJSON(f, f.GeneratedAt)
	if err != nil {
		slog.Error(config.ErrJSONEncode, config.LogKeyError, err, config.LogKeyComponent, config.CompApp)
		return
	}
	a.Server.UpdateForecast(doc)
}

// loadSyncConfig assembles the engine configuration from settings and the keyring.
func (a *App) loadSyncConfig(s config.Settings) engine.SyncConfig {
	cfg := engine.SyncConfig{
		Mode:            s.Source.Mode,
		LocalPath:       s.Source.Path,
		WebURL:          s.Source.URL,
		UserID:          s.Database.UserID,
		ReminderTrigger: s.ReminderTrigger(),
	}

	if s.Source.Mode != config.SourceModeWeb || s.Source.User == "" {
		return cfg
	}

	if s.Source.Auth != config.AuthBearer {
		cfg.WebUser = s.Source.User
	}

	secret, err := LookupSecret(s.Source.User)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyUser, s.Source.User,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompApp)
		return cfg
	}
	cfg.WebSecret = secret
	return cfg
}
