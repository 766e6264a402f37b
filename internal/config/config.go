package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/classpulse/notification-engine/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds config envs and values used across the engine. Only this
// struct must be used to hold any configuration values, no direct access
// to env, ini or any other config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	AppName  string `env:"APP_NAME" default:"notification_engine"`
	AppDebug bool   `env:"APP_DEBUG" default:"1"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" default:":8080"`

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
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	// the two engine loops, independently configurable
	QueueProcessEnabled   bool          `env:"QUEUE_PROCESS_ENABLED" default:"1"`
	QueueProcessInterval  time.Duration `env:"QUEUE_PROCESS_INTERVAL" default:"15s"`
	QueueProcessBatchSize int           `env:"QUEUE_PROCESS_BATCH_SIZE" default:"25"`

	QueueScheduleEnabled   bool          `env:"QUEUE_SCHEDULE_ENABLED" default:"1"`
	QueueScheduleInterval  time.Duration `env:"QUEUE_SCHEDULE_INTERVAL" default:"60s"`
	QueueScheduleBatchSize int           `env:"QUEUE_SCHEDULE_BATCH_SIZE" default:"20"`

	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" default:"30s"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" default:"30m"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" default:"5"`

	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" default:"60s"`

	ProviderUrl         string        `env:"PROVIDER_URL"`
	ProviderSendTimeout time.Duration `env:"PROVIDER_SEND_TIMEOUT" default:"5s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
