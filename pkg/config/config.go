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
	FeatureFlags FeatureFlagsConfig
	Barcode      BarcodeConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SCRAPSCAN_APP_ENV" required:"true"`
	Port         string `envconfig:"SCRAPSCAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCRAPSCAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCRAPSCAN_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"SCRAPSCAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCRAPSCAN_DB_DSN"`
	Driver string `envconfig:"SCRAPSCAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCRAPSCAN_DB_HOST"`
	LegacyPort     int    `envconfig:"SCRAPSCAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCRAPSCAN_DB_USER"`
	LegacyPassword string `envconfig:"SCRAPSCAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCRAPSCAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCRAPSCAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCRAPSCAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCRAPSCAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCRAPSCAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCRAPSCAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCRAPSCAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCRAPSCAN_REDIS_ADDR"`
	Password     string        `envconfig:"SCRAPSCAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCRAPSCAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCRAPSCAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCRAPSCAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCRAPSCAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCRAPSCAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCRAPSCAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCRAPSCAN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCRAPSCAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCRAPSCAN_JWT_EXPIRATION_MINUTES" default:"480"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCRAPSCAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCRAPSCAN_AUTO_MIGRATE" default:"false"`
}

// BarcodeConfig controls the nomenclature used when no rules are stored in the database.
type BarcodeConfig struct {
	WeightPattern string `envconfig:"SCRAPSCAN_BARCODE_WEIGHT_PATTERN" default:"21.....{NNDDD}"`
	ImageURLBase  string `envconfig:"SCRAPSCAN_PRODUCT_IMAGE_URL_BASE" default:"/web/image/product"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SCRAPSCAN_EVENTING_IDEMPOTENCY_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SCRAPSCAN_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ScrapTopic        string `envconfig:"SCRAPSCAN_PUBSUB_SCRAP_TOPIC" default:"scrap-events"`
	ScrapSubscription string `envconfig:"SCRAPSCAN_PUBSUB_SCRAP_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SCRAPSCAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SCRAPSCAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SCRAPSCAN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the maintenance worker.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"SCRAPSCAN_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"SCRAPSCAN_MAINTENANCE_OUTBOX_RETENTION_DAYS" default:"30"`
	ScrapDraftTTL       time.Duration `envconfig:"SCRAPSCAN_MAINTENANCE_SCRAP_DRAFT_TTL" default:"72h"`
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
