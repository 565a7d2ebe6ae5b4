package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	server "room_booking/internal/adapters/http_server"
	"room_booking/internal/adapters/observability"
	redisad "room_booking/internal/adapters/redis"
	"room_booking/internal/app"
	"room_booking/internal/domain"
	"room_booking/internal/shared"
	mysqlrepo "room_booking/internal/storage/mysql"
	"room_booking/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	repo, closeDB := openStore(ctx, cfg)
	defer closeDB()

	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	// optional cache
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, continuing; cache calls will fail soft")
		}
		cache = rc
	}

	lists := app.NewListCache(cache)
	cmd := app.NewCommandService(repo, lists)
	q := app.NewQueryService(repo, lists, cfg.CacheTTL)

	// http
	srv := server.New(server.Options{
		Timeout:        cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.CORSOrigins,
	})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{C: cmd, Q: q, Health: repo})
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func openStore(ctx context.Context, cfg shared.Config) (domain.BookingRepository, func()) {
	var (
		db   *sqlx.DB
		err  error
		repo domain.BookingRepository
	)
	switch cfg.StorageDriver {
	case shared.DriverMySQL:
		db, err = sqlx.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		repo = mysqlrepo.New(db)
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("sqlite open failed")
		}
		repo = sqlite.New(db)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("database connection ok")
	return repo, func() { _ = db.Close() }
}
