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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clipcanvas/internal/access"
	"clipcanvas/internal/config"
	"clipcanvas/internal/gemini"
	"clipcanvas/internal/httpclient"
	"clipcanvas/internal/session"
	"clipcanvas/internal/telegram"
	"clipcanvas/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  "clipcanvas/1.0",
	})

	host := access.NewKeyringHost(cfg.KeyringService)
	gate := access.New(access.Options{
		Host:     host,
		CacheTTL: cfg.AccessCacheTTL,
		Logger:   logger,
	})

	gemOpts := gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		PaidKeys:   host,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		ModelHQ:    cfg.GeminiModelHQ,
		HTTPClient: httpClient,
		Logger:     logger,
	}

	var gen session.ImageGenerator
	if cfg.GeminiBackend == config.BackendGenAI {
		gen = gemini.NewSDK(gemOpts)
	} else {
		gen = gemini.New(gemOpts)
	}

	ctrl := session.New(session.Options{
		Generator: gen,
		Gate:      gate,
		Logger:    logger,
	})

	webOpts := web.Options{
		Controller:            ctrl,
		Keys:                  host,
		Access:                gate,
		RequestTimeout:        cfg.RequestTimeout,
		GenerateRatePerMinute: cfg.GenerateRatePerMinute,
		Logger:                logger,
	}

	if cfg.TelegramEnabled() {
		publisher, err := telegram.New(telegram.Options{
			Token:      cfg.TelegramToken,
			ChatID:     cfg.TelegramChatID,
			HTTPClient: httpClient,
			Logger:     logger,
			Debug:      cfg.TelegramDebug,
		})
		if err != nil {
			return err
		}
		webOpts.Sharer = publisher
	}

	srvHandler, err := web.New(webOpts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           srvHandler.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web started",
			"addr", cfg.WebAddr,
			"backend", cfg.GeminiBackend,
			"telegram", cfg.TelegramEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
