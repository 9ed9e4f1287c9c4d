package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"flight_monitor/internal/config"
	"flight_monitor/internal/history"
	"flight_monitor/internal/model"
	"flight_monitor/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	// Reading history needs no search credentials.
	cfg, err := config.Parse()
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

	ctx := context.Background()

	switch os.Args[1] {
	case "stats":
		records, err := store.All(ctx)
		if err != nil {
			log.Error("read history", "error", err)
			os.Exit(1)
		}
		fmt.Print(history.Stats(records, time.Now()))
		if len(records) == 0 {
			fmt.Println()
		}
	case "show":
		if len(os.Args) < 3 {
			usage()
		}
		o, d, err := model.ParseRoute(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		rec, err := store.Get(ctx, model.RouteKey(o, d))
		if errors.Is(err, history.ErrNotFound) {
			fmt.Printf("No price history for %s yet.\n", model.RouteKey(o, d))
			return
		}
		if err != nil {
			log.Error("read history", "error", err)
			os.Exit(1)
		}
		fmt.Println(history.FormatRecord(*rec))
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: history <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  stats         Show the lowest price seen per route")
	fmt.Fprintln(os.Stderr, "  show ROUTE    Show the record of one route, e.g. EZE-MAD")
	os.Exit(2)
}
