package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/config"
	"github.com/nimasrn/repair-desk/internal/dispatch"
	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/internal/repository"
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
	logger.Info("starting dispatcher", "version", version, "commit", commit, "date", date)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions("dispatcher"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	queueConf := queue.QueueConfig{
		Name:              cfg.QueueName,
		ConsumerGroup:     cfg.QueueConsumerGroup,
		ConsumerName:      cfg.QueueConsumerName,
		MaxRetries:        cfg.QueueMaxRetries,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		PollInterval:      cfg.QueuePollInterval,
		BatchSize:         cfg.QueueBatchSize,
		MaxLen:            cfg.QueueMaxLen,
		EnableDLQ:         cfg.QueueEnableDLQ,
	}
	if queueConf.ConsumerName == "" {
		if host, err := os.Hostname(); err == nil {
			queueConf.ConsumerName = host
		}
	}

	publisher, err := queue.NewQueue(redisAdap, queueConf)
	if err != nil {
		logger.Error("failed to create publisher queue", "error", err)
		return
	}

	pushRepo := repository.NewPushSubscriptionRepository(db)
	registry, closers := buildSenders(cfg, pushRepo)
	if len(registry.Channels()) == 0 {
		logger.Error("no delivery channel is configured")
		return
	}

	idempotencyService := dispatch.NewIdempotencyService(redisAdap, dispatch.DefaultIdempotencyConfig())
	processor := dispatch.NewNotificationProcessor(registry, repository.NewDeliveryRepository(db), idempotencyService)
	relay := dispatch.NewRelay(repository.NewOutboxRepository(db), publisher, cfg.OutboxBatchSize, cfg.OutboxPollInterval).
		WithRetention(cfg.OutboxRetention)

	service := dispatch.NewService(redisAdap, dispatch.Config{
		Queue:     queueConf,
		Consumers: cfg.DispatchConsumers,
		Workers:   cfg.DispatchWorkers,
	}, relay, processor)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(metricsAddr(cfg), "/metrics")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		return
	}

	<-c
	service.Stop()
	if err := publisher.Stop(5 * time.Second); err != nil {
		logger.Warn("publisher did not stop cleanly", "error", err)
	}
	for _, closeFn := range closers {
		_ = closeFn()
	}
}

// buildSenders registers every channel that has enough configuration to
// run. Channels left out fail their jobs permanently in the processor.
func buildSenders(cfg *config.Config, pushStore channels.PushSubscriptionStore) (*channels.Registry, []func() error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		senders []channels.Sender
		closers []func() error
	)

	switch cfg.SmsTransport {
	case "sns":
		sns, err := channels.NewSNSSenderFromRegion(ctx, cfg.AwsRegion, cfg.SmsSenderID)
		if err != nil {
			logger.Error("sms over sns disabled", "error", err)
			break
		}
		senders = append(senders, sns)
	default:
		var providers []channels.SMSProviderConfig
		if cfg.SmsProviderPrimaryUrl != "" {
			providers = append(providers, channels.SMSProviderConfig{Name: "primary", URL: cfg.SmsProviderPrimaryUrl, Weight: 100})
		}
		if cfg.SmsProviderSecondUrl != "" {
			providers = append(providers, channels.SMSProviderConfig{Name: "secondary", URL: cfg.SmsProviderSecondUrl, Weight: 80})
		}
		if len(providers) == 0 {
			logger.Warn("sms disabled, no provider url set")
			break
		}
		sms, err := channels.NewSMSClient(&channels.SMSConfig{
			Providers:               providers,
			APIKey:                  cfg.SmsApiKey,
			SenderID:                cfg.SmsSenderID,
			Timeout:                 time.Second * 5,
			MaxRetries:              3,
			RetryDelay:              time.Millisecond * 100,
			MaxConns:                1000,
			ReadBufferSize:          1024 * 4,
			WriteBufferSize:         1024 * 4,
			HealthCheckInterval:     30 * time.Second,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   60 * time.Second,
		})
		if err != nil {
			logger.Error("failed to create sms client", "error", err)
			break
		}
		senders = append(senders, sms)
		closers = append(closers, sms.Close)
	}

	if cfg.WhatsappApiUrl != "" {
		wa, err := channels.NewWhatsAppSender(channels.WhatsAppConfig{
			APIURL:        cfg.WhatsappApiUrl,
			PhoneNumberID: cfg.WhatsappPhoneNumberID,
			Token:         cfg.WhatsappToken,
			Timeout:       cfg.WhatsappTimeout,
		})
		if err != nil {
			logger.Error("whatsapp disabled", "error", err)
		} else {
			senders = append(senders, wa)
		}
	}

	if cfg.VapidPublicKey != "" {
		push, err := channels.NewPushSender(channels.PushConfig{
			VAPIDPublicKey:  cfg.VapidPublicKey,
			VAPIDPrivateKey: cfg.VapidPrivateKey,
			Subject:         cfg.VapidSubject,
		}, pushStore)
		if err != nil {
			logger.Error("push disabled", "error", err)
		} else {
			senders = append(senders, push)
		}
	}

	if cfg.EmailFrom != "" {
		email, err := channels.NewEmailSenderFromRegion(ctx, cfg.AwsRegion, cfg.EmailFrom)
		if err != nil {
			logger.Error("email disabled", "error", err)
		} else {
			senders = append(senders, email)
		}
	}

	return channels.NewRegistry(senders...), closers
}

func metricsAddr(cfg *config.Config) string {
	if cfg.AppDebugMetricsAddr != "" {
		return cfg.AppDebugMetricsAddr
	}
	return ":9100"
}
