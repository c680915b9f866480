// Command server runs the federated query gateway: the HTTP session API,
// the catalog metastore, and the local compute engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"fedsql/internal/api"
	"fedsql/internal/authz"
	"fedsql/internal/compute"
	"fedsql/internal/config"
	internaldb "fedsql/internal/db"
	"fedsql/internal/db/repository"
	"fedsql/internal/exec"
	"fedsql/internal/middleware"
	"fedsql/internal/planner"
	"fedsql/internal/scheduler"
	"fedsql/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog metastore.
	metaDB, err := internaldb.OpenMetastore(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open metastore: %w", err)
	}
	defer metaDB.Close()
	if err := internaldb.RunMigrations(metaDB); err != nil {
		return fmt.Errorf("migrate metastore: %w", err)
	}

	userRepo := repository.NewUserRepo(metaDB)
	procRepo := repository.NewProcedureRepo(metaDB)
	eventRepo := repository.NewTimedEventRepo(metaDB)
	tableRepo := repository.NewTableRepo(metaDB)
	grantRepo := repository.NewGrantRepo(metaDB)

	// Local compute engine plus the configured external sources.
	localDB, err := internaldb.OpenLocalEngine(cfg.LocalDB)
	if err != nil {
		return fmt.Errorf("open local engine: %w", err)
	}
	local := compute.NewLocalEngine(localDB)
	defer local.Close()

	sources := compute.NewRegistry(logger)
	defer sources.Close()
	for _, sc := range cfg.Sources {
		if _, err := sources.Open(sc.Name, sc.Driver, sc.DSN); err != nil {
			return fmt.Errorf("open source %q: %w", sc.Name, err)
		}
		// SQLite sources are attachable to the local engine so local
		// fallback can still reach their tables.
		if sc.Driver == "sqlite3" {
			if err := local.Attach(ctx, sc.Name, sc.DSN); err != nil {
				logger.Warn("attach source to local engine failed", "source", sc.Name, "error", err)
			}
		}
	}

	gate := authz.New(cfg.Org, userRepo, grantRepo)
	plan := planner.New(cfg.Org, tableRepo, local, logger)
	reads := exec.NewReadExecutor(plan, sources, local, gate, logger)
	sink := compute.NewSourceSink(sources)
	mutations := exec.NewMutationExecutor(cfg.Org, plan, tableRepo, sources, local, sink, gate, logger)

	// Timed-event coordinator connection.
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("fedsql-server"))
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()
	coordinator := scheduler.NewClient(nc, logger)
	events := scheduler.NewService(cfg.Org, userRepo, procRepo, eventRepo, coordinator, logger)

	groups := session.NewJobGroups()
	sessions := session.NewRegistry(func(user, database string) *session.Runner {
		return session.NewRunner(user, database, reads, mutations, events, groups, logger)
	})

	handler := api.NewHandler(sessions, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", cfg.UserHeader},
		}))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))
	}

	r.Get("/health", api.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(cfg.JWTSecret), cfg.UserHeader))
		r.Mount("/", handler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "org", cfg.Org)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
