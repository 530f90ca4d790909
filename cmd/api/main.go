package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/internal/handlers"
	"github.com/leasedesk/leasedesk/internal/lock"
	"github.com/leasedesk/leasedesk/internal/queue"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/internal/services"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/blob"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"github.com/leasedesk/leasedesk/pkg/prom"
	"github.com/leasedesk/leasedesk/pkg/redis"
	"github.com/valyala/fasthttp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	// transport (tcp for now)
	opts := xhttp.DefaultServerOption
	if cfg.HttpServerReadTimeout > 0 || cfg.HttpServerWriteTimeout > 0 {
		opts = opts.WithTimeouts(cfg.HttpServerReadTimeout, cfg.HttpServerWriteTimeout)
	}
	s := xhttp.NewServer(opts)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.MetricsMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.IsDev())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	ctx := context.Background()

	// redis is optional: without it the decision lock, token revocation and event stream are off
	var (
		redisAdap redis.RedisAdapter
		revoked   services.TokenStore
		locker    services.Locker
		publisher services.NotificationPublisher
	)
	if cfg.RedisAddr != "" {
		redisAdap, err = redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		revoked = redisAdap
		locker = lock.NewDecisionLock(redisAdap, cfg.DecisionLockTTL)

		q, err := queue.NewQueue(ctx, redisAdap, queue.QueueConfig{
			Name:          cfg.NotificationStream,
			ConsumerGroup: cfg.NotificationConsumerGroup,
			MaxLen:        100_000,
		})
		if err != nil {
			logger.Error("failed creating notification stream, events disabled", "error", err)
		} else {
			publisher = queue.NewNotificationEvents(q)
		}
	} else {
		logger.Warn("REDIS_ADDR is empty: decision lock, logout revocation and notification events are disabled")
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("failed opening blob store", "error", err)
		return
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
	if err != nil {
		logger.Error("failed creating token manager", "error", err)
		return
	}

	landlordRepo := repository.NewLandlordRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	managerRepo := repository.NewPropertyManagerRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// services
	identityService := services.NewIdentityService(landlordRepo, tenantRepo, adminRepo, managerRepo, tokens, revoked)
	applicationService := services.NewApplicationService(applicationRepo, unitRepo, propertyRepo, tenantRepo, db, locker, blobs)
	registryService := services.NewRegistryService(propertyRepo, unitRepo, tenantRepo, landlordRepo, applicationRepo,
		applicationService, db, blobs)
	paymentService := services.NewPaymentService(paymentRepo, unitRepo, notificationRepo, db, locker, publisher,
		blobs, cfg.CurrencyLabel)
	notificationService := services.NewNotificationService(notificationRepo)
	reportService := services.NewReportService(reportRepo, cfg.CurrencyLabel)
	healthService := services.NewHealthService(map[string]services.Pinger{"postgres": db, "redis": redisAdap})

	s.Use(handlers.PrincipalMiddleware(identityService))

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))
	handlers.RegisterAuthRoutes(g, handlers.NewAuthHandler(identityService))
	handlers.RegisterPropertyRoutes(g, handlers.NewPropertyHandler(registryService))
	handlers.RegisterApplicationRoutes(g, handlers.NewApplicationHandler(applicationService))
	handlers.RegisterPaymentRoutes(g, handlers.NewPaymentHandler(paymentService, time.Local))
	handlers.RegisterNotificationRoutes(g, handlers.NewNotificationHandler(notificationService))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(reportService))

	if local, ok := blobs.(*blob.LocalStore); ok {
		s.Router.ServeFilesCustom("/storage/{filepath:*}", &fasthttp.FS{Root: local.Root(), Compress: false})
	}

	if cfg.AppDebugMetricsAddr != "" {
		go func() {
			logger.Info("metrics listening", "addr", cfg.AppDebugMetricsAddr, "uri", cfg.AppDebugMetricsURI)
			if err := fasthttp.ListenAndServe(cfg.AppDebugMetricsAddr, metricsOnly(cfg.AppDebugMetricsURI)); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	} else {
		s.Router.GET(cfg.AppDebugMetricsURI, prom.Handler())
	}

	done := s.CloseOnSignal()
	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-done
	if closer, ok := blobs.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.BlobDriver == "gcs" {
		return blob.NewGCSStore(ctx, cfg.BlobGCSBucket, cfg.BlobGCSCredentials, cfg.BlobPublicPrefix)
	}
	return blob.NewLocalStore(cfg.BlobLocalRoot, cfg.BlobPublicPrefix)
}

func metricsOnly(uri string) fasthttp.RequestHandler {
	h := prom.Handler()
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != uri {
			ctx.Error(xhttp.StatusText(xhttp.StatusNotFound), xhttp.StatusNotFound)
			return
		}
		h(ctx)
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
