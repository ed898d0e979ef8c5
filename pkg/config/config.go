package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREBOT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STOREBOT_DB_DSN"
	EnvDBHost = "STOREBOT_DB_HOST"
	EnvDBUser = "STOREBOT_DB_USER"
	EnvDBName = "STOREBOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Orders       OrdersConfig
	Admin        AdminConfig
	Cron         CronConfig
	Metrics      MetricsConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREBOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREBOT_DB_DSN"`
	Driver string `envconfig:"STOREBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREBOT_DB_USER"`
	LegacyPassword string `envconfig:"STOREBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREBOT_REDIS_URL"`
	Address      string        `envconfig:"STOREBOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// OrdersConfig carries the order-timeout horizon for the scheduler.
type OrdersConfig struct {
	PendingTimeoutHours int `envconfig:"STOREBOT_ORDER_TIMEOUT_HOURS" default:"24"`
}

// PendingTimeout returns the horizon after which pending orders expire.
func (o OrdersConfig) PendingTimeout() time.Duration {
	if o.PendingTimeoutHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(o.PendingTimeoutHours) * time.Hour
}

// AdminConfig holds the admin identity allowlist injected into the gateway.
type AdminConfig struct {
	AllowedIDs []int64 `envconfig:"STOREBOT_ADMIN_IDS"`
}

// IsAllowed reports whether the given actor id is on the allowlist.
func (a AdminConfig) IsAllowed(id int64) bool {
	for _, allowed := range a.AllowedIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

type CronConfig struct {
	Interval time.Duration `envconfig:"STOREBOT_CRON_INTERVAL" default:"15m"`
	LockKey  string        `envconfig:"STOREBOT_CRON_LOCK_KEY" default:"storebot:cron:lock"`
	LockTTL  time.Duration `envconfig:"STOREBOT_CRON_LOCK_TTL" default:"30m"`
}

type MetricsConfig struct {
	Addr string `envconfig:"STOREBOT_METRICS_ADDR" default:":9090"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREBOT_AUTO_MIGRATE" default:"false"`
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
