package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/komunitas-dev/go-auth-core/audit"
	fakeeventrepo "github.com/komunitas-dev/go-auth-core/audit/repofakes"
	"github.com/komunitas-dev/go-auth-core/auth"
	"github.com/komunitas-dev/go-auth-core/credentials"
	fakecredentialrepo "github.com/komunitas-dev/go-auth-core/credentials/repofakes"
	"github.com/komunitas-dev/go-auth-core/internal/config"
	"github.com/komunitas-dev/go-auth-core/internal/metrics"
	"github.com/komunitas-dev/go-auth-core/postgres"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	fakeattemptrepo "github.com/komunitas-dev/go-auth-core/ratelimit/repofakes"
	"github.com/komunitas-dev/go-auth-core/redisstore"
	"github.com/komunitas-dev/go-auth-core/server"
	"github.com/komunitas-dev/go-auth-core/sessions"
)

const databaseMaxConns = 10

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := newLogger(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	credentialRepo, attemptRepo, eventRepo, pool, err := buildStores(ctx, c, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	revocations, err := buildRevocationStore(ctx, c, logger)
	if err != nil {
		return err
	}

	sessionManager, err := sessions.NewManager(c.GetSessionSigningKey(), revocations,
		sessions.WithTTL(c.GetSessionTTL()),
		sessions.WithElevatedTTL(c.GetElevatedSessionTTL()),
		sessions.WithMaxLifetime(c.GetMaxSessionLifetime()),
	)
	if err != nil {
		return fmt.Errorf("sessions.NewManager: %w", err)
	}

	limiter, err := ratelimit.NewLimiter(attemptRepo, c.GetMaxLoginAttempts(), c.GetLockoutWindow())
	if err != nil {
		return fmt.Errorf("ratelimit.NewLimiter: %w", err)
	}

	recorder, err := audit.NewRecorder(eventRepo, audit.NewLogNotifier(logger),
		audit.WithAlerting(c.GetAlertWindow(), c.GetAlertThreshold()),
		audit.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("audit.NewRecorder: %w", err)
	}

	authService, err := auth.NewService(
		auth.Repos{Credentials: credentialRepo},
		credentials.NewHasher(c.GetHashIterations()),
		limiter,
		sessionManager,
		recorder,
		auth.WithStoreTimeout(c.GetStoreTimeout()),
		auth.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	if err := bootstrapSuperAdmin(ctx, c, authService); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sweeper, err := audit.NewSweeper(eventRepo, attemptRepo,
		audit.WithEventRetention(c.GetFailureRetention(), c.GetFailureSweepInterval()),
		audit.WithAttemptRetention(c.GetAttemptRetention(), c.GetAttemptSweepInterval()),
		audit.WithBatchSize(c.GetSweepBatchSize()),
		audit.WithSweepObserver(m.ObserveSweep),
		audit.WithSweeperLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("audit.NewSweeper: %w", err)
	}
	go sweeper.Run(ctx)

	srv, err := server.New(c, authService, m, registry, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

// buildStores wires the Postgres-backed repos when DATABASE_URL is set, and
// in-memory repos otherwise. The in-memory fallback keeps local development
// free of infrastructure but loses everything on restart.
func buildStores(ctx context.Context, c config.Config, logger zerolog.Logger) (credentials.Repo, ratelimit.AttemptRepo, audit.EventRepo, *pgxpool.Pool, error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, using volatile in-memory stores")
		return fakecredentialrepo.NewFakeCredentialRepo(),
			fakeattemptrepo.NewFakeAttemptRepo(),
			fakeeventrepo.NewFakeEventRepo(),
			nil, nil
	}

	pool, err := postgres.Connect(ctx, databaseURL, databaseMaxConns)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("postgres.Connect: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("postgres.EnsureSchema: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return postgres.NewCredentialRepo(pool),
		postgres.NewAttemptRepo(pool),
		postgres.NewEventRepo(pool),
		pool, nil
}

func buildRevocationStore(ctx context.Context, c config.Config, logger zerolog.Logger) (sessions.RevocationStore, error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, using in-process revocation list")
		return sessions.NewInMemoryRevocationStore(), nil
	}

	client, err := redisstore.NewClient(ctx, addr, c.GetRedisPassword(), c.GetRedisDB())
	if err != nil {
		return nil, fmt.Errorf("redisstore.NewClient: %w", err)
	}
	logger.Info().Str("addr", addr).Msg("connected to redis")
	return redisstore.NewRevocationStore(client), nil
}

func bootstrapSuperAdmin(ctx context.Context, c config.Config, authService *auth.Service) error {
	name := c.GetBootstrapAdminName()
	password := c.GetBootstrapAdminPassword()
	if name == "" || password == "" {
		return nil
	}
	if err := authService.EnsureSuperAdmin(ctx, name, password); err != nil {
		return fmt.Errorf("bootstrap super admin: %w", err)
	}
	return nil
}

func newLogger(c config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", c.GetAppName()).Logger()
	if c.GetEnv() == "DEV" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
