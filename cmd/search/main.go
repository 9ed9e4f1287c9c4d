package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flight_monitor/internal/config"
	"flight_monitor/internal/fetcher"
	"flight_monitor/internal/filter"
	"flight_monitor/internal/history"
	"flight_monitor/internal/llm"
	"flight_monitor/internal/model"
	"flight_monitor/internal/monitor"
	"flight_monitor/internal/report"
	"flight_monitor/internal/search"
	"flight_monitor/internal/storage"
)

func main() {
	origin := flag.String("origin", "", "origin IATA code, e.g. EZE")
	destination := flag.String("destination", "", "destination IATA code, e.g. MAD")
	date := flag.String("date", "", "departure date (YYYY-MM-DD)")
	days := flag.Int("days", 30, "days ahead to search when -date is not set")
	save := flag.Bool("save", false, "save a markdown report")
	out := flag.String("out", "", "markdown report path (implies -save)")
	record := flag.Bool("record", false, "record found prices in the price history")
	feeds := flag.Bool("feeds", false, "also search the configured deal feeds")
	flag.Parse()

	if *origin == "" || *destination == "" {
		fmt.Fprintln(os.Stderr, "Usage: search -origin EZE -destination MAD [-date YYYY-MM-DD | -days N] [-save] [-out file.md] [-record] [-feeds]")
		os.Exit(2)
	}
	o, d, err := model.ParseRoute(*origin + "-" + *destination)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	route := model.Route{Origin: o, Destination: d, DaysAhead: *days}

	now := time.Now()
	departure := route.DepartureDate(now)
	if *date != "" {
		if _, err := time.Parse(model.DateLayout, *date); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q, want YYYY-MM-DD\n", *date)
			os.Exit(2)
		}
		departure = *date
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.LogLevel, os.Stderr)

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
	opts := monitor.Options{
		PriceFloorUSD: cfg.PriceFloorUSD,
		Evaluate:      cfg.EvaluateDeals,
		FeedExcludes:  excludes,
	}
	if *feeds {
		opts.Feeds = cfg.DealFeeds
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
		Feeds:   fetcher.New(httpClient),
		LLM:     llm.New(httpClient, cfg.OllamaURL, cfg.Model, cfg.LLMTimeout),
		History: store,
		Known:   store,
	}, opts, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Searching %s -> %s on %s\n\n", o, d, departure)
	deals, err := mon.Scan(ctx, route, departure)
	if err != nil {
		log.Error("scan", "route", route.Key(), "error", err)
		os.Exit(1)
	}

	if err := report.Table(os.Stdout, deals); err != nil {
		log.Error("print results", "error", err)
		os.Exit(1)
	}

	if *record {
		tracker := history.NewTracker(store, log)
		today := now.Format(model.DateLayout)
		for _, deal := range deals {
			tracker.Record(ctx, deal, today)
		}
	}

	if *save || *out != "" {
		path := *out
		if path == "" {
			path = report.Filename(o, d, now)
		}
		if err := os.WriteFile(path, []byte(report.Markdown(deals, o, d, now)), 0o644); err != nil {
			log.Error("save report", "path", path, "error", err)
			os.Exit(1)
		}
		fmt.Printf("\nReport saved to %s\n", path)
	}
}
