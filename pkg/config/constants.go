package config

// EnvPrefix namespaces all environment variables consumed by envconfig.
const EnvPrefix = "RIFAZONE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "RIFAZONE_APP_ENV"
	EnvPort       = "RIFAZONE_APP_PORT"
	EnvDBDSN      = "RIFAZONE_DB_DSN"
	EnvDBHost     = "RIFAZONE_DB_HOST"
	EnvDBUser     = "RIFAZONE_DB_USER"
	EnvDBName     = "RIFAZONE_DB_NAME"
	EnvRedisURL   = "RIFAZONE_REDIS_URL"
	EnvJWTSecret  = "RIFAZONE_JWT_SECRET"
	EnvJWTIssuer  = "RIFAZONE_JWT_ISSUER"
	EnvJWTExpMins = "RIFAZONE_JWT_EXPIRATION_MINUTES"

	EnvPixBaseURL       = "RIFAZONE_PIX_BASE_URL"
	EnvPixAPIKey        = "RIFAZONE_PIX_API_KEY"
	EnvPixWebhookSecret = "RIFAZONE_PIX_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
