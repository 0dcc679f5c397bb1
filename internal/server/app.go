// Package server wires configuration, storage, services and transports into
// the Thought Board server and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/logging"
	"github.com/dmitrijs2005/thoughtboard/internal/server/archive"
	"github.com/dmitrijs2005/thoughtboard/internal/server/auth"
	"github.com/dmitrijs2005/thoughtboard/internal/server/config"
	"github.com/dmitrijs2005/thoughtboard/internal/server/httpapi"
	"github.com/dmitrijs2005/thoughtboard/internal/server/metrics"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/thoughtboard/internal/server/services"
	"github.com/dmitrijs2005/thoughtboard/internal/server/throttle"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/thoughtboard/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	users    *services.UserService
	thoughts *services.ThoughtService
	exporter *archive.Exporter
	limiter  throttle.Limiter
	metrics  *metrics.Metrics
}

// NewApp connects to the backing stores, applies migrations and builds the
// services. The caller must call Close.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)
	logger.Info(ctx, "configuration loaded", "config", c)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}
	if err := app.init(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config
	rm := repomanager.NewPostgresRepositoryManager()

	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	hasher := auth.NewHasher(auth.Argon2idParams{
		MemoryKiB:   c.Argon2MemoryKiB,
		Iterations:  c.Argon2Iterations,
		Parallelism: c.Argon2Parallelism,
	})
	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	authenticator, err := auth.NewAuthenticator(hasher, issuer)
	if err != nil {
		return fmt.Errorf("authenticator: %w", err)
	}

	app.users = services.NewUserService(app.db, rm, authenticator,
		services.WithAdminUsername(c.AdminUsername),
		services.WithLogger(app.logger),
		services.WithLoginRecorder(app.metrics),
	)
	if err := app.users.EnsureAdmin(ctx); err != nil {
		return err
	}
	app.thoughts = services.NewThoughtService(app.db, rm)

	policy := throttle.Policy{MaxFailures: c.LoginMaxFailures, Window: c.LoginWindow}
	if c.RedisAddr != "" {
		rc, err := throttle.NewRedisClient(ctx, c.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		app.redis = rc
		app.limiter = throttle.NewRedisLimiter(rc, policy)
	} else {
		app.logger.Warn(ctx, "REDIS_ADDR not set, login throttling is per process")
		app.limiter = throttle.NewMemoryLimiter(policy)
	}

	if c.S3Enabled() {
		store, err := archive.NewS3Store(ctx, archive.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return fmt.Errorf("s3 init error: %w", err)
		}
		app.exporter = archive.NewExporter(app.thoughts, store)
	}

	return nil
}

// Close releases the database and redis connections.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return app.db.PingContext(ctx)
}

func (app *App) router() http.Handler {
	deps := httpapi.Deps{
		Users:       app.users,
		Thoughts:    app.thoughts,
		Limiter:     app.limiter,
		Metrics:     app.metrics,
		Logger:      app.logger.With("module", "http_server"),
		Ready:       app.ready,
		CORSOrigins: app.config.CORSOrigins,
		Debug:       logging.ParseLevel(app.config.LogLevel) < 0,
	}
	if app.exporter != nil {
		deps.Exporter = app.exporter
	}
	return httpapi.NewRouter(deps)
}

func (app *App) runHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.runHTTPServer(gctx)
	})
	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.users, app.limiter,
			gs.WithLoginRecorder(app.metrics))
		return s.Run(gctx)
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
