// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/accounts/internal/cryptox"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/httpapi"
	"github.com/dmitrijs2005/accounts/internal/server/notify"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	reaper *services.Reaper
}

// storage is what the services need from a backing store.
type storage struct {
	db      dbx.DBTX
	tx      dbx.Transactor
	manager repomanager.RepositoryManager
	health  httpapi.HealthFunc
}

// openStorage connects to PostgreSQL and migrates it, or builds the
// in-process store when the DSN asks for it.
var openStorage = func(ctx context.Context, cfg *config.Config) (*storage, *sql.DB, error) {
	if cfg.UsesMemoryStore() {
		store := memory.NewStore()
		return &storage{
			db:      memory.Handle(),
			tx:      store,
			manager: memory.NewManager(store),
		}, nil, nil
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	return &storage{
		db:      db,
		tx:      dbx.NewSQLTransactor(db, nil),
		manager: m,
		health:  db.PingContext,
	}, db, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, logger logging.Logger) (notify.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierS3:
		return notify.NewS3Outbox(ctx, cfg, logger.With("module", "outbox"))
	default:
		return notify.NewLogNotifier(logger.With("module", "notifier")), nil
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	st, db, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	svcLog := logger.With("module", "services")
	accounts := services.NewAccountService(st.db, st.tx, st.manager, hasher, notifier, svcLog, services.SettingsFromConfig(cfg))
	donations := services.NewDonationService(st.db, st.manager, svcLog)
	subscriptions := services.NewSubscriptionService(st.db, st.manager, svcLog)

	srv := httpapi.NewServer(cfg.HTTPAddr, logger, accounts, donations, subscriptions, st.health,
		httpapi.NewRateLimiter(cfg.RateLimitPerMinute), cfg.TrustProxyHeaders, cfg.ShutdownTimeout)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		http:   srv,
		reaper: services.NewReaper(st.db, st.manager, cfg.ReaperInterval, logger.With("module", "reaper")),
	}, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer closeDB(app.db)

	app.logger.Info(ctx, "Starting app...", "memory_store", app.config.UsesMemoryStore())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			runErr = err
		}
		cancelFunc()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.reaper.Run(ctx)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
