// Command server runs the meeting scheduling API.
//
// @title                      Meeting Scheduling API
// @version                    1.0
// @description                Collects participants' availability for a meeting, keeps a live per-slot tally, and schedules the most popular slot.
// @license.name               MIT
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/config"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	httpapi "github.com/tbourn/go-meeting-backend/internal/http"
	"github.com/tbourn/go-meeting-backend/internal/notify"
	"github.com/tbourn/go-meeting-backend/internal/observability"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/slot"
	"github.com/tbourn/go-meeting-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)
	zerolog.DefaultContextLogger = &log.Logger
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(version, "dev")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return err
	}
	if err := observability.InstrumentDB(db); err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	codec, err := slot.NewCodec(cfg.Slots.Granularity, cfg.Slots.Strict)
	if err != nil {
		return err
	}

	store := repo.Store{DB: db}
	hub := feed.NewHub(cfg.Feed.Buffer)
	reg := aggregate.NewRegistry(store,
		aggregate.WithMaxTries(uint(cfg.Feed.RederiveMaxTries)),
		aggregate.WithLogger(log.Logger.With().Str("component", "aggregate").Logger()),
	)
	live := feed.NewAdapter(hub, reg, store, feed.Options{
		IdleTTL:      cfg.Feed.IdleTTL,
		ViewerBuffer: cfg.Feed.ViewerBuffer,
		Logger:       log.Logger.With().Str("component", "feed").Logger(),
	})
	defer live.Close()

	dispCtx, stopDispatcher := context.WithCancel(context.Background())
	disp := notify.NewDispatcher(store, notify.Options{
		QueueSize:    cfg.Notify.Queue,
		BatchMaxSize: cfg.Notify.Batch,
		BatchMaxWait: cfg.Notify.Flush,
		Logger:       log.Logger.With().Str("component", "notify").Logger(),
	})
	disp.Start(dispCtx)
	defer func() {
		stopDispatcher()
		<-disp.Done()
	}()

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Live:      live,
		Publisher: hub,
		Notifier:  disp,
		Codec:     codec,
		Logger:    log.Logger.With().Str("component", "lifecycle").Logger(),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Str("db_driver", cfg.DB.Driver).
			Str("api_base", cfg.APIBasePath).
			Msg("http server listening")
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

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Live streams never finish on their own; closing the adapter ends them.
	live.Close()
	return srv.Shutdown(sctx)
}
