package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/internal/processor"
	"github.com/leasedesk/leasedesk/internal/webhook"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/prom"
	"github.com/leasedesk/leasedesk/pkg/redis"
	"github.com/valyala/fasthttp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultMetricsAddr = ":9100"

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting notifier", "version", version, "commit", commit, "date", date)

	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required by the notifier")
		return
	}
	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName + "-notifier",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	service, err := processor.NewProcessorService(redisAdap, processor.Options{
		Stream:            cfg.NotificationStream,
		ConsumerGroup:     cfg.NotificationConsumerGroup,
		Consumers:         1,
		Workers:           cfg.NotificationWorkers,
		MaxRetries:        5,
		VisibilityTimeout: 30 * time.Second,
		PollInterval:      500 * time.Millisecond,
		EnableDLQ:         true,
	})
	if err != nil {
		logger.Error("failed to create processor", "error", err)
		return
	}
	idempotency := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())
	sinks := processor.Sinks{processor.LogSink{}}
	if urls := webhook.ParseURLs(cfg.NotificationWebhookURLs); len(urls) > 0 {
		hooks, err := webhook.NewSink(webhook.Config{
			URLs:                    urls,
			Timeout:                 5 * time.Second,
			MaxRetries:              2,
			RetryDelay:              200 * time.Millisecond,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   time.Minute,
		})
		if err != nil {
			logger.Error("failed to create webhook sink", "error", err)
			return
		}
		sinks = append(sinks, hooks)
	}
	service.RegisterProcessor(processor.NewNotificationProcessor(sinks, idempotency))

	metricsAddr := cfg.AppDebugMetricsAddr
	if metricsAddr == "" {
		metricsAddr = defaultMetricsAddr
	}
	go func() {
		metrics := prom.Handler()
		logger.Info("metrics listening", "addr", metricsAddr, "uri", cfg.AppDebugMetricsURI)
		err := fasthttp.ListenAndServe(metricsAddr, func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) != cfg.AppDebugMetricsURI {
				ctx.Error(fasthttp.StatusMessage(fasthttp.StatusNotFound), fasthttp.StatusNotFound)
				return
			}
			metrics(ctx)
		})
		if err != nil {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	service.Stop()
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
