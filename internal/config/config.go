package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	// SQLiteLogStatements wraps the driver so every statement is logged at debug level.
	SQLiteLogStatements bool

	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherUserAgent string

	// DefaultStation seeds the Station preference when the store has none.
	DefaultStation string

	// MQTTBroker empty disables mirroring the widget surfaces to MQTT.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// MQTTEnabled reports whether a broker was configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOr("HTTP_ADDR", ":8080")

	driver := envOr("DB_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := envOr("SQLITE_PATH", "../dev/sqlite/widget.db")

	maxOpenConnsStr := envOr("DB_MAX_OPEN_CONNS", "1")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := envOr("DB_MAX_IDLE_CONNS", "1")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQLStr := envOr("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	baseURL := strings.TrimRight(envOr("WEATHER_API_BASE_URL", "https://api.weather.gov"), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid WEATHER_API_BASE_URL %q (expected absolute URL)", baseURL)
	}

	timeoutStr := envOr("WEATHER_HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid WEATHER_HTTP_TIMEOUT %q: %w", timeoutStr, err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("WEATHER_HTTP_TIMEOUT must be positive, got %v", timeout)
	}

	userAgent := envOr("WEATHER_USER_AGENT", "widget-weather")

	defaultStation := strings.TrimSpace(os.Getenv("WIDGET_DEFAULT_STATION"))

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))

	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := envOr("MQTT_CLIENT_ID", "widget-weather")
	mqttTopic := strings.Trim(envOr("MQTT_TOPIC", "widget"), "/")
	if mqttTopic == "" {
		return Config{}, fmt.Errorf("MQTT_TOPIC must not be empty")
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogStatements:   logSQL,
		WeatherBaseURL:        baseURL,
		WeatherTimeout:        timeout,
		WeatherUserAgent:      userAgent,
		DefaultStation:        defaultStation,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		MQTTTopic:             mqttTopic,
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
