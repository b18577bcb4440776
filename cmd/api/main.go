package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/config"
	"github.com/nimasrn/repair-desk/internal/handlers"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/scraper"
	"github.com/nimasrn/repair-desk/internal/search"
	"github.com/nimasrn/repair-desk/internal/services"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/nimasrn/repair-desk/pkg/prom"
	"github.com/nimasrn/repair-desk/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	if cfg.CorsAllowOrigin != "" {
		s.Use(xhttp.CORSMiddleware(cfg.CorsAllowOrigin))
	}
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions("api"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	tokens, err := auth.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)
	if err != nil {
		logger.Error("failed creating token manager", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(metricsAddr(cfg), "/metrics")

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	applianceRepo := repository.NewApplianceRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	partRepo := repository.NewSparePartRepository(db)
	pushRepo := repository.NewPushSubscriptionRepository(db)

	// services
	planner := services.NewPlanner(cfg.CompanyName, cfg.CompanyPhone, channels.SupplierRouter{
		DefaultEmail: cfg.SupplierDefaultEmail,
		ComplusEmail: cfg.SupplierComplusEmail,
	})
	ticketService := services.NewServiceTicketService(serviceRepo, clientRepo, applianceRepo, userRepo,
		notificationRepo, outboxRepo, planner, cfg.StatusStrictTransitions)
	clientService := services.NewClientService(clientRepo, applianceRepo, referenceRepo)
	userService := services.NewUserService(userRepo, tokens)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, outboxRepo, db, planner)
	pushService := services.NewPushService(pushRepo, cfg.VapidPublicKey)
	integrityService := services.NewIntegrityService(serviceRepo, applianceRepo)
	catalogService := services.NewCatalogService(partRepo, notificationRepo, catalogIndex(cfg))

	var scrapeJob handlers.ScrapeJob
	if cfg.ScraperSitesFile != "" {
		sitesFile := cfg.ScraperSitesFile
		sc := scraper.New(scraper.NewHTTPFetcher(20*time.Second, nil), catalogService, scraper.Options{
			MinDelay: cfg.ScraperMinDelay,
			MaxDelay: cfg.ScraperMaxDelay,
		})
		scrapeJob = scraper.NewJob(sc, func() ([]scraper.Site, error) {
			return scraper.LoadSites(sitesFile)
		}, 0)
	}

	// handlers
	guard := handlers.NewAuth(tokens)
	handlers.RegisterRoutes(s.Router, guard, handlers.Handlers{
		Users:         handlers.NewUserHandler(userService),
		Services:      handlers.NewServiceHandler(ticketService, integrityService),
		Clients:       handlers.NewClientHandler(clientService),
		Notifications: handlers.NewNotificationHandler(notificationService, pushService),
		Catalog:       handlers.NewCatalogHandler(catalogService, scrapeJob),
		Analytics:     handlers.NewAnalyticsHandler(prom.AddWebVital),
		Health: handlers.NewHealthHandler(version, map[string]handlers.Pinger{
			"postgres": db,
			"redis":    redisAdap,
		}),
	})

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

// catalogIndex returns nil when Elasticsearch is not configured, which makes
// the catalog fall back to database search.
func catalogIndex(cfg *config.Config) services.CatalogIndex {
	addrs := cfg.ElasticsearchAddressList()
	if len(addrs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	idx, err := search.Open(ctx, search.Config{
		Addresses: addrs,
		Username:  cfg.ElasticsearchUsername,
		Password:  cfg.ElasticsearchPassword,
	})
	if err != nil {
		logger.Error("elasticsearch unavailable, using database search", "error", err)
		return nil
	}
	return idx
}

func metricsAddr(cfg *config.Config) string {
	if cfg.AppDebugMetricsAddr != "" {
		return cfg.AppDebugMetricsAddr
	}
	return ":9100"
}
