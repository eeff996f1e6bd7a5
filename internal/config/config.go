package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Inference backend.
	BackendURL       string
	BackendTimeout   time.Duration
	BackendCacheSize int
	BackendCacheTTL  time.Duration

	// Optional shared cache. Empty RedisAddr keeps the cache in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaPredictionTopic string
	KafkaAlertTopic      string

	AlertPollInterval  time.Duration
	AlertStreamEnabled bool
}

// RelayEnabled reports whether any alert sink is configured.
func (c *Config) RelayEnabled() bool {
	return c.KafkaEnabled || c.AlertStreamEnabled
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	backendTimeout, err := parsePositiveDuration("BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("BACKEND_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("ALERT_POLL_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BackendURL:       strings.TrimRight(sharedcfg.EnvOrDefault("BACKEND_URL", "http://localhost:5000"), "/"),
		BackendTimeout:   backendTimeout,
		BackendCacheSize: parseCacheSize(),
		BackendCacheTTL:  cacheTTL,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaEnabled:         os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "poaching-risk-predictions"),
		KafkaAlertTopic:      sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "poaching-risk-alerts"),

		AlertPollInterval:  pollInterval,
		AlertStreamEnabled: sharedcfg.EnvOrDefault("ALERT_STREAM_ENABLED", "true") == "true",
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL %q", cfg.BackendURL)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaPredictionTopic == "" || cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_PREDICTION_TOPIC and KAFKA_ALERT_TOPIC are required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("BACKEND_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
