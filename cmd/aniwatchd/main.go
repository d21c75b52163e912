// Command aniwatchd is the long-running acquisition service: it loads
// its configuration, opens the catalog, and serves the HTTP control
// surface while a single background mode-engine pass runs at a time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/api"
	"github.com/atreides/aniwatch/internal/catalog"
	"github.com/atreides/aniwatch/internal/downloader"
	"github.com/atreides/aniwatch/internal/handlers"
	"github.com/atreides/aniwatch/internal/logsink"
	"github.com/atreides/aniwatch/internal/modeengine"
	"github.com/atreides/aniwatch/internal/models"
	"github.com/atreides/aniwatch/internal/pipeline"
	"github.com/atreides/aniwatch/internal/scraper"
	"github.com/atreides/aniwatch/internal/search"
)

// livePipeline adapts *pipeline.Pipeline to modeengine.PipelineRunner,
// refreshing Pipeline.Config from the live settings holder on every
// call. Safe without its own lock: the mode engine only ever runs one
// pass, on one goroutine, at a time.
type livePipeline struct {
	pipeline *pipeline.Pipeline
	live     *config.Live
}

func (lp *livePipeline) Run(ctx context.Context, job pipeline.EpisodeJob) (pipeline.Outcome, error) {
	lp.pipeline.Config = lp.live.Get()
	return lp.pipeline.Run(ctx, job)
}

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("aniwatchd starting...")

	configPath := os.Getenv("ANIWATCH_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "config.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		var cfgErr *config.ConfigError
		if !errors.As(err, &cfgErr) {
			log.Fatalf("failed to load settings: %v", err)
		}
		log.Printf("config file unreadable, continuing with defaults: %v", err)
	}
	live := config.NewLive(settings)

	dataDir := settings.DataFolderPath
	if dataDir == "" {
		dataDir = "data"
	}
	sink, err := logsink.New(dataDir)
	if err != nil {
		log.Fatalf("failed to open log sink: %v", err)
	}
	defer sink.Close()

	logger := slog.New(slog.NewTextHandler(sink.Writer(), nil))
	slog.SetDefault(logger)

	if *portOverride > 0 {
		settings.Port = *portOverride
		live.Set(settings)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")
	store, err := catalog.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer store.Close()

	dl := downloader.New(settings.AniworldBinaryPath)

	pl := &pipeline.Pipeline{
		Store:      store,
		Downloader: dl,
		Config:     live.Get(),
	}

	engine := &modeengine.Engine{
		Store:      store,
		Runner:     &livePipeline{pipeline: pl, live: live},
		ScraperFor: scraper.ForSite,
		Config:     live.Get,
		Log:        logger,
	}
	pl.Snapshot = engine
	engine.ClearLastRun = sink.ClearLastRun

	if settings.RefreshTitles {
		updated := store.RefreshTitles(context.Background(), logger)
		logger.Info("startup title refresh complete", "updated", updated)
	}

	providers := search.NewProviders()

	engineHandler := handlers.NewEngineHandler(engine)
	catalogHandler := handlers.NewCatalogHandler(store, live.Get)
	queueHandler := handlers.NewQueueHandler(store)
	searchHandler := handlers.NewSearchHandler(providers)
	configHandler := handlers.NewConfigHandler(live, cfgManager)
	logsHandler := handlers.NewLogsHandler(sink)

	router := api.NewRouter(engineHandler, catalogHandler, queueHandler, searchHandler, configHandler, logsHandler)

	if autostartMode, ok := autostartToMode(settings.AutostartMode); ok {
		if err := engine.Start(autostartMode); err != nil {
			logger.Warn("autostart failed", "mode", autostartMode, "err", err)
		}
	}

	addr := fmt.Sprintf(":%d", settings.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	logger.Info("shutdown signal received")

	engine.Stop()
	engine.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	logger.Info("shutdown complete")
}

func autostartToMode(mode config.AutostartMode) (models.Mode, bool) {
	switch mode {
	case config.AutostartDefault:
		return models.ModeDefault, true
	case config.AutostartGerman:
		return models.ModeGerman, true
	case config.AutostartNew:
		return models.ModeNew, true
	case config.AutostartCheckMissing:
		return models.ModeCheckMissing, true
	default:
		return "", false
	}
}
