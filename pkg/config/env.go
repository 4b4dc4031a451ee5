package config

const (
	EnvPrefix = "FOLIO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "FOLIO_APP_ENV"
	EnvPort       = "FOLIO_APP_PORT"
	EnvLogLevel   = "FOLIO_LOG_LEVEL"
	EnvUseSQLite  = "FOLIO_USE_SQLITE"
	EnvDBDSN      = "FOLIO_DB_DSN"
	EnvDBHost     = "FOLIO_DB_HOST"
	EnvDBUser     = "FOLIO_DB_USER"
	EnvDBName     = "FOLIO_DB_NAME"
	EnvRedisURL   = "FOLIO_REDIS_URL"
	EnvJWTSecret  = "FOLIO_JWT_SECRET"
	EnvJWTIssuer  = "FOLIO_JWT_ISSUER"
	EnvJWTExpMins = "FOLIO_JWT_EXPIRATION_MINUTES"

	EnvPaystackPublicKey = "FOLIO_PAYSTACK_PUBLIC_KEY"
	EnvPaystackSecretKey = "FOLIO_PAYSTACK_SECRET_KEY"
	EnvCurrencyRates     = "FOLIO_CURRENCY_RATES"
	EnvWhatsAppPhone     = "FOLIO_WHATSAPP_PHONE"
	EnvCORSOrigins       = "FOLIO_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
