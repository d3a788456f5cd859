package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"refine-board/internal/api"
	"refine-board/internal/config"
	"refine-board/internal/db"
	"refine-board/internal/feed"
	"refine-board/internal/logger"
)

var version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	logger.Banner(version)

	cfg := config.Load()
	if *port != 0 {
		cfg.Port = *port
	}
	if cfg.MetaURL == "" || cfg.DataURL == "" {
		logger.Error("CONFIG", "REFINE_META_URL and REFINE_DATA_URL must be set")
		os.Exit(1)
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	loader := feed.NewLoader(feed.NewClient(), cfg.MetaURL, cfg.DataURL, cfg.DateFrom, cfg.DateTo)
	srv := api.NewServer(cfg, loader, database)

	// Initial feed load in background; the API answers 503 until it lands.
	go func() {
		res, err := loader.Load(context.Background())
		if err != nil {
			logger.Error("FEED", fmt.Sprintf("Initial load failed: %v", err))
			return
		}
		srv.SetData(res.Meta, res.Records, res.LastTimestamp)
		logger.Stats("FEED", fmt.Sprintf("%d records, %d items", len(res.Records), len(res.Meta.Names)))
		logger.Success("FEED", "Dashboard ready")
	}()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
