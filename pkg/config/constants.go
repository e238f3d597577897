package config

// EnvPrefix is passed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "SCRAPSCAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "SCRAPSCAN_APP_ENV"
	EnvPort       = "SCRAPSCAN_APP_PORT"
	EnvLogLevel   = "SCRAPSCAN_LOG_LEVEL"
	EnvDBDSN      = "SCRAPSCAN_DB_DSN"
	EnvDBHost     = "SCRAPSCAN_DB_HOST"
	EnvDBPort     = "SCRAPSCAN_DB_PORT"
	EnvDBUser     = "SCRAPSCAN_DB_USER"
	EnvDBPassword = "SCRAPSCAN_DB_PASSWORD"
	EnvDBName     = "SCRAPSCAN_DB_NAME"
	EnvRedisURL   = "SCRAPSCAN_REDIS_URL"
	EnvJWTSecret  = "SCRAPSCAN_JWT_SECRET"
	EnvJWTIssuer  = "SCRAPSCAN_JWT_ISSUER"
	EnvJWTExpMins = "SCRAPSCAN_JWT_EXPIRATION_MINUTES"

	EnvBarcodeWeightPattern = "SCRAPSCAN_BARCODE_WEIGHT_PATTERN"
	EnvPubSubScrapTopic     = "SCRAPSCAN_PUBSUB_SCRAP_TOPIC"
	EnvOutboxMaxAttempts    = "SCRAPSCAN_OUTBOX_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
