package config

// EnvPrefix is passed to envconfig; individual fields carry fully prefixed
// tags already, so this stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv       = "REPLATE_APP_ENV"
	EnvPort         = "REPLATE_APP_PORT"
	EnvDBDSN        = "REPLATE_DB_DSN"
	EnvDBHost       = "REPLATE_DB_HOST"
	EnvDBUser       = "REPLATE_DB_USER"
	EnvDBName       = "REPLATE_DB_NAME"
	EnvRedisURL     = "REPLATE_REDIS_URL"
	EnvJWTSecret    = "REPLATE_JWT_SECRET"
	EnvJWTIssuer    = "REPLATE_JWT_ISSUER"
	EnvJWTExpMins   = "REPLATE_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID = "REPLATE_GCP_PROJECT_ID"
	EnvDomainTopic  = "REPLATE_PUBSUB_DOMAIN_TOPIC"
	EnvDomainSub    = "REPLATE_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
