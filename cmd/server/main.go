package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealerdesk/api/internal/app"
	"github.com/dealerdesk/api/internal/config"
	"github.com/dealerdesk/api/internal/infra/directory"
	infrahttp "github.com/dealerdesk/api/internal/infra/http"
	"github.com/dealerdesk/api/internal/infra/http/handler"
	"github.com/dealerdesk/api/internal/infra/http/routes"
	"github.com/dealerdesk/api/internal/infra/redis"
	"github.com/dealerdesk/api/pkg/domain/role"
	"github.com/dealerdesk/api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// =========================================================================
	// Configuration & Logger
	// =========================================================================
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		log.Error("failed to load role catalog", "error", err)
		return 1
	}
	log.Info("role catalog loaded", "roles", catalog.Len())

	// =========================================================================
	// Infrastructure
	// =========================================================================
	directoryClient := directory.New(cfg.Directory, directory.WithLogger(log))
	var dir app.Directory = directoryClient

	healthOpts := []handler.HealthHandlerOption{
		handler.WithCheck("directory", directoryClient),
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(&cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer closeWithLog(redisClient, "redis", log)

		cached, err := redis.NewCachedDirectory(dir, redisClient, cfg.Form.SnapshotCacheTTL, log)
		if err != nil {
			log.Error("failed to initialize hierarchy cache", "error", err)
			return 1
		}
		dir = cached
		healthOpts = append(healthOpts, handler.WithCheck("redis", redisClient))
		log.Info("hierarchy cache enabled", "ttl", cfg.Form.SnapshotCacheTTL)
	}

	// =========================================================================
	// Services
	// =========================================================================
	forms := app.NewFormService(dir, catalog,
		app.WithSessionTTL(cfg.Form.SessionTTL),
		app.WithSweepInterval(cfg.Form.SweepInterval),
		app.WithFetchTimeout(cfg.Directory.RequestTimeout),
		app.WithFormLogger(log),
	)
	forms.Start()
	defer forms.Stop()

	// =========================================================================
	// HTTP Server
	// =========================================================================
	server := infrahttp.NewServer(cfg, log)
	routes.Register(server.Router(), routes.Handlers{
		Health:  handler.NewHealthHandler(healthOpts...),
		Form:    handler.NewFormHandler(forms, log),
		Catalog: handler.NewCatalogHandler(catalog, dir, log),
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	var log *logger.Logger
	if cfg.App.IsProduction() {
		log = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
	} else {
		log = logger.NewDevelopment()
	}
	log.SetDefault()
	return log
}

// loadCatalog returns the embedded role catalog, or one loaded from the file
// named by ROLE_CATALOG_PATH when set.
func loadCatalog(cfg *config.Config, log *logger.Logger) (*role.Catalog, error) {
	path := os.Getenv("ROLE_CATALOG_PATH")
	if path == "" {
		return role.DefaultCatalog(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log.Info("loading role catalog override", "path", path)
	return role.LoadCatalog(f)
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
