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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	Paystack     PaystackConfig
	Checkout     CheckoutConfig
	Currency     CurrencyConfig
	HandOff      HandOffConfig
	Cart         CartConfig
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
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOLIO_APP_ENV" required:"true"`
	Port         string `envconfig:"FOLIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOLIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOLIO_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"FOLIO_PUBLIC_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"FOLIO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"FOLIO_DB_DSN"`
	Driver     string `envconfig:"FOLIO_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"FOLIO_SQLITE_PATH" default:"folio.db"`

	LegacyHost     string `envconfig:"FOLIO_DB_HOST"`
	LegacyPort     int    `envconfig:"FOLIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOLIO_DB_USER"`
	LegacyPassword string `envconfig:"FOLIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOLIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOLIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOLIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOLIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOLIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOLIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOLIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOLIO_REDIS_ADDR"`
	Password     string        `envconfig:"FOLIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOLIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOLIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOLIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOLIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOLIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOLIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FOLIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FOLIO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FOLIO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOLIO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOLIO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOLIO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOLIO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOLIO_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"FOLIO_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit   int           `envconfig:"FOLIO_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"FOLIO_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	ContactWindow     time.Duration `envconfig:"FOLIO_RATE_LIMIT_CONTACT_WINDOW" default:"10m"`
	ContactEmailLimit int           `envconfig:"FOLIO_RATE_LIMIT_CONTACT_EMAIL_LIMIT" default:"3"`
	ContactIPLimit    int           `envconfig:"FOLIO_RATE_LIMIT_CONTACT_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool `envconfig:"FOLIO_USE_SQLITE" default:"false"`
	AutoMigrate    bool `envconfig:"FOLIO_AUTO_MIGRATE" default:"false"`
	MemoryState    bool `envconfig:"FOLIO_MEMORY_STATE" default:"false"`
	VerifyPayments bool `envconfig:"FOLIO_VERIFY_PAYMENTS" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FOLIO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type PaystackConfig struct {
	PublicKey string        `envconfig:"FOLIO_PAYSTACK_PUBLIC_KEY"`
	SecretKey string        `envconfig:"FOLIO_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"FOLIO_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	ScriptURL string        `envconfig:"FOLIO_PAYSTACK_SCRIPT_URL" default:"https://js.paystack.co/v1/inline.js"`
	Timeout   time.Duration `envconfig:"FOLIO_PAYSTACK_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	DefaultCurrency  string        `envconfig:"FOLIO_CHECKOUT_DEFAULT_CURRENCY" default:"NGN"`
	WidgetTimeout    time.Duration `envconfig:"FOLIO_CHECKOUT_WIDGET_TIMEOUT" default:"30m"`
	ConfirmationPath string        `envconfig:"FOLIO_CHECKOUT_CONFIRMATION_PATH" default:"/order-confirmation"`
}

// CurrencyConfig carries the conversion table as CODE:RATE pairs, where RATE is
// the number of base units (NGN) per unit of CODE.
type CurrencyConfig struct {
	Rates map[string]string `envconfig:"FOLIO_CURRENCY_RATES" default:"USD:1,GHS:100,ZAR:85,KES:12"`
}

type HandOffConfig struct {
	WhatsAppPhone string `envconfig:"FOLIO_WHATSAPP_PHONE"`
	Greeting      string `envconfig:"FOLIO_WHATSAPP_GREETING" default:"Hi! I just completed a payment on your store."`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"FOLIO_CART_SESSION_TTL" default:"72h"`
	CookieName string        `envconfig:"FOLIO_CART_COOKIE_NAME" default:"folio_cart"`
	SecureOnly bool          `envconfig:"FOLIO_CART_COOKIE_SECURE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FOLIO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FOLIO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FOLIO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"FOLIO_PUBSUB_ORDERS_TOPIC" default:"folio-order-events"`
	ContactTopic string `envconfig:"FOLIO_PUBSUB_CONTACT_TOPIC" default:"folio-contact-events"`

	OrdersSubscription  string        `envconfig:"FOLIO_PUBSUB_ORDERS_SUBSCRIPTION" default:"folio-order-events-notifications"`
	ContactSubscription string        `envconfig:"FOLIO_PUBSUB_CONTACT_SUBSCRIPTION" default:"folio-contact-events-notifications"`
	ProcessedEventTTL   time.Duration `envconfig:"FOLIO_PUBSUB_PROCESSED_EVENT_TTL" default:"168h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FOLIO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FOLIO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FOLIO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the retention worker.
type MaintenanceConfig struct {
	Interval        time.Duration `envconfig:"FOLIO_MAINTENANCE_INTERVAL" default:"6h"`
	LockTTL         time.Duration `envconfig:"FOLIO_MAINTENANCE_LOCK_TTL" default:"1h"`
	OutboxRetention time.Duration `envconfig:"FOLIO_MAINTENANCE_OUTBOX_RETENTION" default:"720h"`
	DLQRetention    time.Duration `envconfig:"FOLIO_MAINTENANCE_DLQ_RETENTION" default:"2160h"`
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
