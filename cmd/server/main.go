package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"kasirbuku/backend/internal/analytics"
	"kasirbuku/backend/internal/cache"
	"kasirbuku/backend/internal/config"
	"kasirbuku/backend/internal/httpapi"
	"kasirbuku/backend/internal/service"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/store/memory"
	pgstore "kasirbuku/backend/internal/store/postgres"
	sqlitestore "kasirbuku/backend/internal/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not read .env: %v", err)
	}

	cfg := config.Load()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and STORE_DRIVER=postgres; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	case config.DriverSQLite:
		lite, err := sqlitestore.New(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite unavailable at %s: %v", cfg.SQLitePath, err)
		}
		repo = lite
		closers = append(closers, lite.Close)
		log.Printf("repository: sqlite (%s)", cfg.SQLitePath)
	default:
		if cfg.SeedDemo {
			today := analytics.Today(time.Now(), loc).Format("2006-01-02")
			repo = memory.NewSeeded(today)
			log.Println("repository: in-memory (seeded)")
		} else {
			repo = memory.New()
			log.Println("repository: in-memory")
		}
	}

	cacheStore := cache.DashboardCache(cache.NoopDashboardCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	engine := analytics.NewEngine(cacheStore, cfg.AnalyticsCacheTTL())
	svc := service.New(repo, engine, service.WithLocation(loc))
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("ledger backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateConfig(cfg config.Config) error {
	switch cfg.StoreDriver {
	case config.DriverMemory:
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set when STORE_DRIVER=sqlite")
		}
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	return nil
}
