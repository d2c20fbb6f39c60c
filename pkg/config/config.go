package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TASTEBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"TASTEBITE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TASTEBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TASTEBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TASTEBITE_DB_DSN"`
	Driver string `envconfig:"TASTEBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TASTEBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"TASTEBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TASTEBITE_DB_USER"`
	LegacyPassword string `envconfig:"TASTEBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TASTEBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TASTEBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TASTEBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TASTEBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TASTEBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TASTEBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// TxTimeout bounds every transaction started through db.Client.WithTx.
	TxTimeout     time.Duration `envconfig:"TASTEBITE_DB_TX_TIMEOUT" default:"5s"`
	TxRetries     int           `envconfig:"TASTEBITE_DB_TX_RETRIES" default:"3"`
	TxRetryJitter time.Duration `envconfig:"TASTEBITE_DB_TX_RETRY_BACKOFF" default:"25ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TASTEBITE_REDIS_URL"`
	Address      string        `envconfig:"TASTEBITE_REDIS_ADDR"`
	Password     string        `envconfig:"TASTEBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TASTEBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TASTEBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TASTEBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TASTEBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TASTEBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TASTEBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig verifies the session cookie minted by the identity provider.
type SessionConfig struct {
	CookieName string `envconfig:"TASTEBITE_SESSION_COOKIE" default:"tb_session"`
	JWTSecret  string `envconfig:"TASTEBITE_SESSION_JWT_SECRET" required:"true"`
	Issuer     string `envconfig:"TASTEBITE_SESSION_JWT_ISSUER" default:"tastebite-identity"`
}

// PricingConfig carries the process-wide default tax rate. The bare
// TAX_RATE_PERCENT name is honored alongside the prefixed form.
type PricingConfig struct {
	TaxRatePercent float64 `envconfig:"TAX_RATE_PERCENT" default:"18.0"`
}

func (p PricingConfig) DefaultRate() decimal.Decimal {
	return decimal.NewFromFloat(p.TaxRatePercent)
}

func (p PricingConfig) validate() error {
	if p.TaxRatePercent < 0 {
		return fmt.Errorf("TAX_RATE_PERCENT must be non-negative, got %v", p.TaxRatePercent)
	}
	return nil
}

type CheckoutConfig struct {
	// IdempotencyTTL covers replayed checkout responses stored in redis.
	IdempotencyTTL time.Duration `envconfig:"TASTEBITE_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TASTEBITE_AUTO_MIGRATE" default:"false"`
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
