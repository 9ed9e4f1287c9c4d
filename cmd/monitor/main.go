package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_monitor/internal/bot"
	"flight_monitor/internal/config"
	"flight_monitor/internal/fetcher"
	"flight_monitor/internal/filter"
	"flight_monitor/internal/llm"
	"flight_monitor/internal/monitor"
	"flight_monitor/internal/notify"
	"flight_monitor/internal/scheduler"
	"flight_monitor/internal/search"
	"flight_monitor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log, closeLog, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Error("open log file", "path", cfg.LogFile, "error", err)
		os.Exit(1)
	}
	defer closeLog()

	store, err := storage.Open(cfg, log)
	if err != nil {
		log.Error("open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	excludes, err := filter.ParseRules(cfg.FeedExclude)
	if err != nil {
		log.Error("parse FEED_EXCLUDE", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{}

	var notifiers notify.Multi
	if cfg.DesktopNotify {
		notifiers = append(notifiers, notify.NewDesktop(cfg.NotifyCommand, cfg.OpenURL, log))
	}

	var api *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		api, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Error("create telegram bot", "error", err)
			os.Exit(1)
		}
		log.Info("authorized on telegram", "username", api.Self.UserName)
		notifiers = append(notifiers, notify.NewTelegram(api, cfg.TelegramChatIDs))
	}

	mon := monitor.New(monitor.Deps{
		Search: search.New(httpClient, search.Options{
			URL:       cfg.BraveURL,
			APIKey:    cfg.BraveAPIKey,
			Country:   cfg.SearchCountry,
			Lang:      cfg.SearchLang,
			Freshness: cfg.SearchFreshness,
			Count:     cfg.SearchResults,
			Timeout:   cfg.SearchTimeout,
		}),
		Feeds:    fetcher.New(httpClient),
		LLM:      llm.New(httpClient, cfg.OllamaURL, cfg.Model, cfg.LLMTimeout),
		History:  store,
		Known:    store,
		Notifier: notifiers,
	}, monitor.Options{
		Routes:         cfg.Routes,
		AlertThreshold: cfg.AlertThreshold,
		PriceFloorUSD:  cfg.PriceFloorUSD,
		KnownMaxAge:    cfg.KnownMaxAge,
		Evaluate:       cfg.EvaluateDeals,
		Feeds:          cfg.DealFeeds,
		FeedExcludes:   excludes,
		NotifyGap:      cfg.NotifyGap,
	}, log)

	sched := scheduler.New(mon, cfg.CheckInterval, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// SIGUSR1 starts a cycle without waiting for the next tick.
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-usr1:
				if !sched.Trigger() {
					log.Info("cycle already requested")
				}
			}
		}
	}()

	log.Info("starting monitor",
		"routes", len(cfg.Routes),
		"interval", cfg.CheckInterval,
		"threshold", cfg.AlertThreshold,
		"backend", cfg.StorageBackend,
		"model", cfg.Model,
	)

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	if api != nil {
		bot.New(api, mon, store, cfg, log).Run(ctx)
	} else {
		<-ctx.Done()
	}
	<-done

	log.Info("monitor stopped")
}

func newLogger(level, file string) (*slog.Logger, func(), error) {
	if file == "" {
		return config.NewLogger(level, os.Stderr), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, err
	}
	return config.NewLogger(level, io.MultiWriter(os.Stderr, f)), func() { _ = f.Close() }, nil
}
