package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/internal/services"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"github.com/leasedesk/leasedesk/pkg/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(envPath()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), false)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed connecting to pg")
	}
	defer db.Close()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed creating token manager")
	}

	// logout revocation is shared with the api through redis when configured
	var revoked services.TokenStore
	if cfg.RedisAddr != "" {
		adap, err := redis.NewRedisAdapter("dashboard", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName + "-dashboard",
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed connecting to redis")
		}
		revoked = adap
	}

	identity := services.NewIdentityService(
		repository.NewLandlordRepository(db),
		repository.NewTenantRepository(db),
		repository.NewAdminRepository(db),
		repository.NewPropertyManagerRepository(db),
		tokens, revoked)
	dashboard := services.NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewReportRepository(db))

	router := SetupRouter(NewHandler(dashboard, identity))

	srv := &http.Server{
		Addr:         cfg.DashboardListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Dashboard started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Dashboard forced to shutdown")
	}
}

func envPath() string {
	for _, v := range os.Args[1:] {
		if p, ok := strings.CutPrefix(v, "--env="); ok {
			return p
		}
	}
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}
	return ""
}
