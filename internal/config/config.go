package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every setting of the binaries. Nothing else reads the environment.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=leasedesk"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`
	AppBaseUrl          string `env:"APP_BASE_URL"`

	HttpListenAddr         string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpServerReadTimeout  int           `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int           `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpRequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=10s"`
	DashboardListenAddr    string        `env:"DASHBOARD_LISTEN_ADDR,default=:8081"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=leasedesk:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=leasedesk"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	BlobDriver         string `env:"BLOB_DRIVER,default=local"`
	BlobLocalRoot      string `env:"BLOB_LOCAL_ROOT,default=./storage"`
	BlobGCSBucket      string `env:"BLOB_GCS_BUCKET"`
	BlobGCSCredentials string `env:"BLOB_GCS_CREDENTIALS_FILE"`
	BlobPublicPrefix   string `env:"BLOB_PUBLIC_PREFIX"`

	DecisionLockTTL time.Duration `env:"DECISION_LOCK_TTL,default=15s"`

	NotificationStream        string `env:"NOTIFICATION_STREAM,default=events:notifications"`
	NotificationConsumerGroup string `env:"NOTIFICATION_CONSUMER_GROUP,default=notifier"`
	NotificationWorkers       int    `env:"NOTIFICATION_WORKERS,default=4"`
	NotificationWebhookURLs   string `env:"NOTIFICATION_WEBHOOK_URLS"`

	CurrencyLabel string `env:"CURRENCY_LABEL,default=Php"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.BlobDriver {
	case "local":
	case "gcs":
		if c.BlobGCSBucket == "" {
			return errors.New("BLOB_GCS_BUCKET is required when BLOB_DRIVER=gcs")
		}
	default:
		return errors.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}
	return nil
}

func (c *Config) PostgresRead() pg.Config {
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
	}
}

func (c *Config) PostgresWrite() pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
	}
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration; used by tests and tools that build it in code.
func Set(c *Config) {
	config = c
}
