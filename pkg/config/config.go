package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "ATELIER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ATELIER_APP_ENV"
	EnvPort     = "ATELIER_APP_PORT"
	EnvDBDSN    = "ATELIER_DB_DSN"
	EnvDBHost   = "ATELIER_DB_HOST"
	EnvDBUser   = "ATELIER_DB_USER"
	EnvDBName   = "ATELIER_DB_NAME"
	EnvRedisURL = "ATELIER_REDIS_URL"

	EnvJWTSecret  = "ATELIER_JWT_SECRET"
	EnvJWTIssuer  = "ATELIER_JWT_ISSUER"
	EnvJWTExpMins = "ATELIER_JWT_EXPIRATION_MINUTES"

	EnvRazorpayKeyID     = "ATELIER_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret = "ATELIER_RAZORPAY_KEY_SECRET"

	EnvGCPProjectID      = "ATELIER_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "ATELIER_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "ATELIER_PUBSUB_ORDERS_SUBSCRIPTION"

	EnvCheckoutTaxRate = "ATELIER_CHECKOUT_TAX_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Razorpay     RazorpayConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATELIER_APP_ENV" required:"true"`
	Port         string `envconfig:"ATELIER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATELIER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATELIER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ATELIER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ATELIER_DB_DSN"`
	Driver string `envconfig:"ATELIER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ATELIER_DB_HOST"`
	LegacyPort     int    `envconfig:"ATELIER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ATELIER_DB_USER"`
	LegacyPassword string `envconfig:"ATELIER_DB_PASSWORD"`
	LegacyName     string `envconfig:"ATELIER_DB_NAME"`
	LegacySSLMode  string `envconfig:"ATELIER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATELIER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATELIER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ATELIER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ATELIER_REDIS_ADDR"`
	Password     string        `envconfig:"ATELIER_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATELIER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATELIER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATELIER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATELIER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATELIER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATELIER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ATELIER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ATELIER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ATELIER_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig carries the pricing knobs for order creation. Monetary
// values are parsed from decimal strings to avoid float drift.
type CheckoutConfig struct {
	TaxRate                string `envconfig:"ATELIER_CHECKOUT_TAX_RATE" default:"0.08"`
	PlatformFreeThreshold  string `envconfig:"ATELIER_CHECKOUT_PLATFORM_FREE_THRESHOLD" default:"100"`
	PlatformFlatRate       string `envconfig:"ATELIER_CHECKOUT_PLATFORM_FLAT_RATE" default:"15"`
	DefaultCurrency        string `envconfig:"ATELIER_CHECKOUT_DEFAULT_CURRENCY" default:"INR"`
	PendingOrderTTLMinutes int    `envconfig:"ATELIER_CHECKOUT_PENDING_ORDER_TTL_MINUTES" default:"60"`
}

func (c CheckoutConfig) validate() error {
	for name, raw := range map[string]string{
		"ATELIER_CHECKOUT_TAX_RATE":                c.TaxRate,
		"ATELIER_CHECKOUT_PLATFORM_FREE_THRESHOLD": c.PlatformFreeThreshold,
		"ATELIER_CHECKOUT_PLATFORM_FLAT_RATE":      c.PlatformFlatRate,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
	}
	return nil
}

// TaxRateDecimal returns the configured tax rate. validate guarantees the
// stored string parses.
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.TaxRate)
	return rate
}

// PlatformFreeThresholdDecimal returns the basket total above which
// platform-fulfilled orders ship free.
func (c CheckoutConfig) PlatformFreeThresholdDecimal() decimal.Decimal {
	threshold, _ := decimal.NewFromString(c.PlatformFreeThreshold)
	return threshold
}

// PlatformFlatRateDecimal returns the flat shipping charge applied below
// the free threshold.
func (c CheckoutConfig) PlatformFlatRateDecimal() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.PlatformFlatRate)
	return rate
}

// PendingOrderTTL returns how long a pending order may sit before the
// reconciliation job marks it abandoned.
func (c CheckoutConfig) PendingOrderTTL() time.Duration {
	if c.PendingOrderTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.PendingOrderTTLMinutes) * time.Minute
}

type RazorpayConfig struct {
	KeyID      string        `envconfig:"ATELIER_RAZORPAY_KEY_ID" required:"true"`
	KeySecret  string        `envconfig:"ATELIER_RAZORPAY_KEY_SECRET" required:"true"`
	BaseURL    string        `envconfig:"ATELIER_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout    time.Duration `envconfig:"ATELIER_RAZORPAY_TIMEOUT" default:"15s"`
	BrandName  string        `envconfig:"ATELIER_RAZORPAY_BRAND_NAME" default:"Atelier"`
	BrandColor string        `envconfig:"ATELIER_RAZORPAY_BRAND_COLOR" default:"#1a1a2e"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ATELIER_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ATELIER_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ATELIER_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ATELIER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ATELIER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ATELIER_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"ATELIER_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ATELIER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ATELIER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ATELIER_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
