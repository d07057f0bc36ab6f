// Command geochrond serves the clock configuration API and the solar
// geometry endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/echoflaresat/geochron/config"
	"github.com/echoflaresat/geochron/metrics"
	"github.com/echoflaresat/geochron/render"
	"github.com/echoflaresat/geochron/server"
	"github.com/echoflaresat/geochron/storage"
	"github.com/echoflaresat/geochron/texture"
)

// maxTextureWidth matches the largest map the API renders.
const maxTextureWidth = 4096

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.FromEnv(bootstrap)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("invalid storage configuration", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	renderOpts := render.Options{
		Workers: cfg.RenderWorkers,
		Theme:   loadTheme(cfg, logger),
	}

	srv := server.NewServer(cfg.Addr, logger, store, renderOpts)

	// Track which configuration backend is live.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			metrics.SetStorePrimary(store.UsingPrimary())
			select {
			case <-ticker.C:
				store.Backend(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "redis", cfg.Redis.URL != "", "render_workers", cfg.RenderWorkers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// openStore prefers Redis when configured and falls back to memory. An
// unreachable Redis at startup is logged and the server runs in memory.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage.FallbackStore, func(), error) {
	mem, err := storage.NewMemoryStore(cfg.MemoryCapacity)
	if err != nil {
		return nil, nil, err
	}

	client, err := storage.DialRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory storage", "error", err)
	}
	if client == nil {
		return storage.NewFallbackStore(nil, mem, logger), func() {}, nil
	}

	logger.Info("redis connection established, using database storage")
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close error", "error", err)
		}
	}
	return storage.NewFallbackStore(storage.NewRedisStore(client), mem, logger), closeFn, nil
}

func loadTheme(cfg config.Config, logger *slog.Logger) render.Theme {
	theme := render.DefaultTheme()
	theme.DayTexture = loadTexture(cfg.DayTexture, logger)
	theme.NightTexture = loadTexture(cfg.NightTexture, logger)
	return theme
}

func loadTexture(path string, logger *slog.Logger) texture.Texture {
	if path == "" {
		return texture.Texture{}
	}
	tex, err := texture.Load(path)
	if err != nil {
		logger.Warn("texture load failed, using flat colours", "path", path, "error", err)
		return texture.Texture{}
	}
	small := texture.LimitWidth(tex, maxTextureWidth)
	if small.Width != tex.Width {
		// resampled into memory; the mapped file is no longer needed
		tex.Close()
	}
	return small
}
