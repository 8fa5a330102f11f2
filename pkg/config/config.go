package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pix          PixConfig
	Sales        SalesConfig
	RateLimit    RateLimitConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RIFAZONE_APP_ENV" required:"true"`
	Port         string   `envconfig:"RIFAZONE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"RIFAZONE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"RIFAZONE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RIFAZONE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RIFAZONE_DB_DSN"`
	Driver string `envconfig:"RIFAZONE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RIFAZONE_DB_HOST"`
	LegacyPort     int    `envconfig:"RIFAZONE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RIFAZONE_DB_USER"`
	LegacyPassword string `envconfig:"RIFAZONE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RIFAZONE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RIFAZONE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RIFAZONE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RIFAZONE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RIFAZONE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RIFAZONE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RIFAZONE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RIFAZONE_REDIS_ADDR"`
	Password     string        `envconfig:"RIFAZONE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RIFAZONE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RIFAZONE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RIFAZONE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RIFAZONE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RIFAZONE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RIFAZONE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RIFAZONE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RIFAZONE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RIFAZONE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// PixConfig points at the PSP that issues PIX charges.
type PixConfig struct {
	BaseURL        string        `envconfig:"RIFAZONE_PIX_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"RIFAZONE_PIX_API_KEY" required:"true"`
	WebhookSecret  string        `envconfig:"RIFAZONE_PIX_WEBHOOK_SECRET" required:"true"`
	RequestTimeout time.Duration `envconfig:"RIFAZONE_PIX_REQUEST_TIMEOUT" default:"10s"`
	ChargeExpiry   time.Duration `envconfig:"RIFAZONE_PIX_CHARGE_EXPIRY" default:"30m"`
}

// RateLimitConfig bounds the unauthenticated public endpoints.
type RateLimitConfig struct {
	PublicWindow time.Duration `envconfig:"RIFAZONE_RATE_LIMIT_PUBLIC_WINDOW" default:"1m"`
	PublicLimit  int           `envconfig:"RIFAZONE_RATE_LIMIT_PUBLIC_LIMIT" default:"60"`
}

// SalesConfig bounds ticket allocation.
type SalesConfig struct {
	MaxTicketsPerSale    int `envconfig:"RIFAZONE_MAX_TICKETS_PER_SALE" default:"100"`
	AllocationRetryLimit int `envconfig:"RIFAZONE_ALLOCATION_RETRY_LIMIT" default:"25"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"RIFAZONE_PUBSUB_DOMAIN_TOPIC" default:"rz-domain-events"`
	DomainSubscription string `envconfig:"RIFAZONE_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RIFAZONE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RIFAZONE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RIFAZONE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RIFAZONE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RIFAZONE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"RIFAZONE_GCP_PROJECT_ID"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
