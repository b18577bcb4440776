package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/repair-desk/internal/config"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/scraper"
	"github.com/nimasrn/repair-desk/internal/search"
	"github.com/nimasrn/repair-desk/internal/services"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Runs the catalog scraper once, or forever on SCRAPER_INTERVAL when it is set.
func main() {

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger.Info("starting scraper", "version", version, "commit", commit, "date", date)

	if cfg.ScraperSitesFile == "" {
		logger.Error("SCRAPER_SITES_FILE is not set")
		os.Exit(1)
	}
	sitesFile := cfg.ScraperSitesFile
	if _, err := scraper.LoadSites(sitesFile); err != nil {
		logger.Error("invalid sites file", "path", sitesFile, "error", err)
		os.Exit(1)
	}

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), false)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		os.Exit(1)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		os.Exit(1)
	}

	var index services.CatalogIndex
	if addrs := cfg.ElasticsearchAddressList(); len(addrs) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		idx, err := search.Open(ctx, search.Config{
			Addresses: addrs,
			Username:  cfg.ElasticsearchUsername,
			Password:  cfg.ElasticsearchPassword,
		})
		cancel()
		if err != nil {
			logger.Error("elasticsearch unavailable, parts are stored without indexing", "error", err)
		} else {
			index = idx
		}
	}

	catalog := services.NewCatalogService(
		repository.NewSparePartRepository(db),
		repository.NewNotificationRepository(db),
		index,
	)
	sc := scraper.New(scraper.NewHTTPFetcher(20*time.Second, nil), catalog, scraper.Options{
		MinDelay: cfg.ScraperMinDelay,
		MaxDelay: cfg.ScraperMaxDelay,
	})
	job := scraper.NewJob(sc, func() ([]scraper.Site, error) {
		return scraper.LoadSites(sitesFile)
	}, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ScraperInterval > 0 {
		go prom.ListenAndServer(metricsAddr(cfg), "/metrics")
		job.Every(ctx, cfg.ScraperInterval)
		return
	}

	res, err := job.Run(ctx)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}
	if !res.Success {
		os.Exit(1)
	}
}

func metricsAddr(cfg *config.Config) string {
	if cfg.AppDebugMetricsAddr != "" {
		return cfg.AppDebugMetricsAddr
	}
	return ":9100"
}
