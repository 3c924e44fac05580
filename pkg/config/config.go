package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"REPLATE_APP_ENV" required:"true"`
	Port         string `envconfig:"REPLATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REPLATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REPLATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REPLATE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"REPLATE_DB_DSN"`
	Driver string `envconfig:"REPLATE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REPLATE_DB_HOST"`
	LegacyPort     int    `envconfig:"REPLATE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPLATE_DB_USER"`
	LegacyPassword string `envconfig:"REPLATE_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPLATE_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPLATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPLATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPLATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPLATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPLATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPLATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REPLATE_REDIS_ADDR"`
	Password     string        `envconfig:"REPLATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPLATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPLATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPLATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPLATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPLATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPLATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REPLATE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REPLATE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REPLATE_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"REPLATE_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"REPLATE_PASSWORD_BCRYPT_COST" default:"12"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"REPLATE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"REPLATE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"REPLATE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"REPLATE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterEmailLimit int           `envconfig:"REPLATE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"REPLATE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REPLATE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REPLATE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"REPLATE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REPLATE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"REPLATE_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"REPLATE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REPLATE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REPLATE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REPLATE_OUTBOX_MAX_ATTEMPTS" default:"10"`

	IdempotencyTTL time.Duration `envconfig:"REPLATE_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	ListingExpirySweepEvery time.Duration `envconfig:"REPLATE_CRON_LISTING_EXPIRY_EVERY" default:"10m"`
	RankingRefreshEvery     time.Duration `envconfig:"REPLATE_CRON_RANKING_REFRESH_EVERY" default:"24h"`
	OutboxRetentionEvery    time.Duration `envconfig:"REPLATE_CRON_OUTBOX_RETENTION_EVERY" default:"6h"`
	OutboxRetentionAge      time.Duration `envconfig:"REPLATE_CRON_OUTBOX_RETENTION_AGE" default:"720h"`
	LockTTL                 time.Duration `envconfig:"REPLATE_CRON_LOCK_TTL" default:"5m"`
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
