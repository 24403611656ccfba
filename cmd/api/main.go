package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/config"
	"github.com/hamed0406/pagewatch/internal/detector"
	"github.com/hamed0406/pagewatch/internal/httpapi"
	apimw "github.com/hamed0406/pagewatch/internal/httpapi/middleware"
	"github.com/hamed0406/pagewatch/internal/logging"
	"github.com/hamed0406/pagewatch/internal/metrics"
	"github.com/hamed0406/pagewatch/internal/notify"
	"github.com/hamed0406/pagewatch/internal/probe"
	"github.com/hamed0406/pagewatch/internal/scheduler"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) (err error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	sender, err := notify.Select(notify.TelegramOptions{
		Token:  cfg.TelegramToken,
		ChatID: cfg.TelegramChatID,
		APIURL: cfg.TelegramAPIURL,
	}, cfg.SlackWebhookURL)
	if err != nil {
		return err
	}
	notifier := notify.New(sender, logger)
	if !notifier.Configured() {
		logger.Warn("notifier_unconfigured", zap.String("hint", "set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID, or SLACK_WEBHOOK_URL"))
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	fetcher := probe.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes, cfg.UserAgent)
	fetcher.Logger = logger
	det := detector.New(logger, fetcher, store, notifier, m, cfg.Targets)

	rc, err := scheduler.NewRechecker(logger, det, cfg.CheckSchedule, cfg.Location(), cfg.CheckOnStart)
	if err != nil {
		return err
	}

	api := httpapi.NewServer(logger, cfg.Targets, store, det, metrics.Handler(reg))
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			Keys:           apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
			AllowedOrigins: cfg.AllowedOrigins,
			PublicRPM:      cfg.PublicRPM,
			PublicBurst:    cfg.PublicBurst,
			AdminRPM:       cfg.AdminRPM,
			AdminBurst:     cfg.AdminBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rc.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.Strings("targets", cfg.Targets),
			zap.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	case err = <-serveErr:
	}
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = multierr.Append(err, srv.Shutdown(shutdownCtx))
	wg.Wait()
	logger.Info("shutdown_complete")
	return err
}
