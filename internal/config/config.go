package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/nimasrn/repair-desk/pkg/redis"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every configuration value of the repair desk binaries.
// Only this struct must be used to read configuration, no direct access to
// env or any other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"repair_desk"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`
	AppBaseUrl          string `env:"APP_BASE_URL"`

	HttpListenAddr            string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout     int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout    int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpServerReadBufferSize  int    `env:"HTTP_SERVER_READ_BUFFER_SIZE"`
	HttpServerWriteBufferSize int    `env:"HTTP_SERVER_WRITE_BUFFER_SIZE"`
	CorsAllowOrigin           string `env:"CORS_ALLOW_ORIGIN"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	JwtSecret string        `env:"JWT_SECRET"`
	JwtTTL    time.Duration `env:"JWT_TTL"`

	StatusStrictTransitions bool `env:"STATUS_STRICT_TRANSITIONS"`

	CompanyName  string `env:"COMPANY_NAME"`
	CompanyPhone string `env:"COMPANY_PHONE"`

	QueueName              string        `env:"QUEUE_NAME"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"`
	OutboxRetention    time.Duration `env:"OUTBOX_RETENTION"`
	DispatchWorkers    int           `env:"DISPATCH_WORKERS"`
	DispatchConsumers  int           `env:"DISPATCH_CONSUMERS"`

	SmsTransport          string `env:"SMS_TRANSPORT"`
	SmsProviderPrimaryUrl string `env:"SMS_PROVIDER_PRIMARY_URL"`
	SmsProviderSecondUrl  string `env:"SMS_PROVIDER_SECONDARY_URL"`
	SmsApiKey             string `env:"SMS_API_KEY"`
	SmsSenderID           string `env:"SMS_SENDER_ID"`

	WhatsappApiUrl        string        `env:"WHATSAPP_API_URL"`
	WhatsappPhoneNumberID string        `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsappToken         string        `env:"WHATSAPP_TOKEN"`
	WhatsappTimeout       time.Duration `env:"WHATSAPP_TIMEOUT"`

	VapidPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VapidPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VapidSubject    string `env:"VAPID_SUBJECT"`

	AwsRegion            string `env:"AWS_REGION"`
	EmailFrom            string `env:"EMAIL_FROM"`
	SupplierDefaultEmail string `env:"SUPPLIER_DEFAULT_EMAIL"`
	SupplierComplusEmail string `env:"SUPPLIER_COMPLUS_EMAIL"`
	AdminEmail           string `env:"ADMIN_EMAIL"`

	ElasticsearchAddresses string `env:"ELASTICSEARCH_ADDRESSES"`
	ElasticsearchUsername  string `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword  string `env:"ELASTICSEARCH_PASSWORD"`

	ScraperSitesFile string        `env:"SCRAPER_SITES_FILE"`
	ScraperMinDelay  time.Duration `env:"SCRAPER_MIN_DELAY"`
	ScraperMaxDelay  time.Duration `env:"SCRAPER_MAX_DELAY"`
	ScraperInterval  time.Duration `env:"SCRAPER_INTERVAL"`

	BackupDir string `env:"BACKUP_DIR"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration file "+path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	c.applyDefaults()

	config = c
	return nil
}

func (c *Config) applyDefaults() {
	if c.JwtTTL <= 0 {
		c.JwtTTL = 12 * time.Hour
	}
	if c.CompanyName == "" {
		c.CompanyName = "Repair Desk"
	}
	if c.QueueName == "" {
		c.QueueName = "notifications"
	}
	if c.QueueConsumerGroup == "" {
		c.QueueConsumerGroup = "dispatchers"
	}
	if c.QueueMaxRetries <= 0 {
		c.QueueMaxRetries = 3
	}
	if c.OutboxPollInterval <= 0 {
		c.OutboxPollInterval = time.Second
	}
	if c.OutboxBatchSize <= 0 {
		c.OutboxBatchSize = 100
	}
	if c.OutboxRetention <= 0 {
		c.OutboxRetention = 7 * 24 * time.Hour
	}
	if c.DispatchWorkers <= 0 {
		c.DispatchWorkers = 8
	}
	if c.DispatchConsumers <= 0 {
		c.DispatchConsumers = 2
	}
	if c.WhatsappTimeout <= 0 {
		c.WhatsappTimeout = 30 * time.Second
	}
	if c.ScraperMinDelay <= 0 {
		c.ScraperMinDelay = time.Second
	}
	if c.ScraperMaxDelay < c.ScraperMinDelay {
		c.ScraperMaxDelay = 3 * time.Second
	}
	if c.BackupDir == "" {
		c.BackupDir = "./backups"
	}
}

// ElasticsearchAddressList splits the comma separated address list.
func (c *Config) ElasticsearchAddressList() []string {
	var out []string
	for _, a := range strings.Split(c.ElasticsearchAddresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Config) PostgresRead() pg.Config {
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
	}
}

func (c *Config) PostgresWrite() pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
	}
}

func (c *Config) RedisOptions(clientName string) *redis.Options {
	return &redis.Options{
		Addrs:      []string{c.RedisAddr},
		ClientName: clientName,
		DB:         c.RedisDatabase,
		Username:   c.RedisUsername,
		Password:   c.RedisPassword,
	}
}

// EnvPathFromArgs returns the file passed as --env=path, or "" when absent
// or unreadable.
func EnvPathFromArgs(args []string) string {
	for _, v := range args {
		if strings.HasPrefix(v, "--env=") {
			path := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(path); err != nil {
				logger.Error("failed to open the passed env file", "path", path, "error", err)
				return ""
			}
			return path
		}
	}
	return ""
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
