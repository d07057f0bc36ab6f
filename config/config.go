// Package config reads the server settings from the environment.
package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Redis holds connection settings for the configuration store.
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Config struct {
	Addr           string
	LogLevel       slog.Level
	Redis          Redis
	MemoryCapacity int
	RenderWorkers  int
	DayTexture     string
	NightTexture   string
}

// FromEnv builds a Config from GEOCHRON_* variables. Malformed numbers are
// logged and replaced by their defaults.
func FromEnv(logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := Config{
		Addr:           ":5000",
		LogLevel:       ParseLevel(os.Getenv("GEOCHRON_LOG_LEVEL")),
		MemoryCapacity: 1024,
		RenderWorkers:  runtime.GOMAXPROCS(0),
		DayTexture:     os.Getenv("GEOCHRON_DAY_TEXTURE"),
		NightTexture:   os.Getenv("GEOCHRON_NIGHT_TEXTURE"),
		Redis: Redis{
			URL:          os.Getenv("GEOCHRON_REDIS_URL"),
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if v := os.Getenv("GEOCHRON_HTTP_ADDR"); v != "" {
		cfg.Addr = v
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	cfg.MemoryCapacity = positiveInt(logger, "GEOCHRON_MEMORY_CAPACITY", cfg.MemoryCapacity)
	cfg.RenderWorkers = positiveInt(logger, "GEOCHRON_RENDER_WORKERS", cfg.RenderWorkers)
	cfg.Redis.PoolSize = positiveInt(logger, "GEOCHRON_REDIS_POOL_SIZE", cfg.Redis.PoolSize)
	return cfg
}

func positiveInt(logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
