// Package server initializes and runs the session engine server: database
// connection and migrations, service wiring, the HTTP API, and the periodic
// abandonment sweep.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/logging"
	"github.com/RulzOrg/resumate-sub008/internal/server/config"
	"github.com/RulzOrg/resumate-sub008/internal/server/httpapi"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/repomanager"
	"github.com/RulzOrg/resumate-sub008/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	sessionService *services.SessionService
	storageService *services.StorageService
	api            *httpapi.API
}

// NewApp wires the application together and runs database migrations.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	storageService := services.NewStorageService(db, rm, c)
	sessionService := services.NewSessionService(db, rm, storageService, logger)
	evidenceService := services.NewEvidenceService(db, rm, services.NewChunkIndexer(), logger)

	api := httpapi.NewAPI(sessionService, storageService, evidenceService, []byte(c.SecretKey), logger)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		sessionService: sessionService,
		storageService: storageService,
		api:            api,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.api.Routes(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runSweepLoop deletes stale abandoned sessions on a fixed interval until ctx
// is cancelled.
func (app *App) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.sessionService.SweepAbandoned(ctx, app.config.AbandonAfter); err != nil {
				app.logger.Error(ctx, "sweep failed", "error", err.Error())
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweepLoop(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
