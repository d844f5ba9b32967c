// Package app wires the dataset, services, archive and HTTP router together.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"scdb-dashboard/config"
	"scdb-dashboard/handlers"
	"scdb-dashboard/repository"
	"scdb-dashboard/service"
	"scdb-dashboard/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// App holds the running dashboard
type App struct {
	Config    config.Config
	Cases     *repository.CaseRepository
	Dashboard *service.DashboardService
	Sessions  *service.SessionService
	Exports   *service.ExportService
	Router    *gin.Engine

	logger zerolog.Logger
	db     *pgxpool.Pool
	redis  *repository.RedisSessionStore
}

// New loads the dataset and builds every service. A dataset that cannot be
// loaded is an error; a missing archive only disables archiving.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	layout, err := config.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return nil, err
	}

	cases, err := repository.LoadCaseRepository(cfg.DatasetPath, layout)
	if err != nil {
		return nil, err
	}
	logCaseStats(logger, cfg.DatasetPath, cases)

	a := &App{Config: cfg, Cases: cases, logger: logger}

	a.Dashboard = service.NewDashboardService(
		service.WithCaseRepository(cases),
		service.WithDashboardLogger(logger),
	)
	store, err := a.initSessionStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Sessions = service.NewSessionService(a.Dashboard,
		service.WithSessionStore(store),
		service.WithSessionLogger(logger),
	)

	exportOpts := []service.ExportServiceOption{
		service.WithExportBasename(layout.ExportBasename),
		service.WithExportLogger(logger),
	}
	archive, recorder, err := a.initArchive(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if archive != nil {
		exportOpts = append(exportOpts, service.WithArchive(archive, recorder))
	}
	a.Exports = service.NewExportService(exportOpts...)

	if cfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Router = handlers.NewRouter(handlers.Services{
		Dashboard: a.Dashboard,
		Sessions:  a.Sessions,
		Exports:   a.Exports,
	}, logger)

	return a, nil
}

func (a *App) initSessionStore(ctx context.Context) (service.SessionStore, error) {
	if a.Config.SessionStore != config.SessionsInRedis {
		return repository.NewMemorySessionStore(a.Config.SessionTTL), nil
	}

	store, err := repository.NewRedisSessionStore(ctx, a.Config.RedisURL, a.Config.SessionTTL)
	if err != nil {
		return nil, err
	}
	a.redis = store
	a.logger.Info().Msg("Sessions stored in Redis")
	return store, nil
}

func (a *App) initArchive(ctx context.Context) (storage.Storage, service.ExportRecorder, error) {
	store, err := storage.NewStorageFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store == nil {
		a.logger.Info().Msg("Export archive disabled")
		return nil, nil, nil
	}

	if a.Config.DatabaseURL == "" {
		a.logger.Info().Msg("DATABASE_URL not set, keeping export records in memory")
		return store, repository.NewMemoryExportRepository(), nil
	}

	pool, err := initPostgres(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Postgres: %w", err)
	}
	a.db = pool
	a.logger.Info().Msg("Postgres connection established")
	return store, repository.NewExportRepository(pool), nil
}

// Run serves HTTP until ctx is done, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	a.Sessions.Start(ctx)
	a.Exports.StartRetention(ctx, a.Config.ExportRetention)

	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("port", a.Config.Port).Str("mode", string(a.Config.Mode)).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the database pool and Redis connection, if any
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func logCaseStats(logger zerolog.Logger, path string, cases *repository.CaseRepository) {
	stats := cases.Stats()
	min, max, _ := cases.TermBounds()
	logger.Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("min_term", min).
		Int("max_term", max).
		Msg("Dataset loaded")

	if stats.SkippedRows > 0 || stats.ReshapedRows > 0 {
		logger.Warn().
			Int("skipped", stats.SkippedRows).
			Int("reshaped", stats.ReshapedRows).
			Msg("Malformed rows in dataset")
	}
	if stats.DuplicateIDs > 0 {
		logger.Warn().Int("duplicates", stats.DuplicateIDs).Msg("Duplicate case IDs in dataset")
	}
	if stats.MissingDates > 0 {
		logger.Debug().Int("missing", stats.MissingDates).Msg("Cases without a decision date")
	}
	if stats.DecodedLatin1 {
		logger.Debug().Msg("Dataset decoded as Windows-1252")
	}
}
