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
	Solana       SolanaConfig
	Cron         CronConfig
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
	Env          string `envconfig:"SOLMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"SOLMARKET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SOLMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOLMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOLMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOLMARKET_DB_DSN"`
	Driver string `envconfig:"SOLMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOLMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"SOLMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOLMARKET_DB_USER"`
	LegacyPassword string `envconfig:"SOLMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOLMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOLMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOLMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOLMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOLMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOLMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLMARKET_REDIS_URL"`
	Address      string        `envconfig:"SOLMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SOLMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOLMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SolanaConfig describes the escrow program the backend derives addresses
// for. The backend never submits transactions itself.
type SolanaConfig struct {
	EscrowProgramID string        `envconfig:"SOLMARKET_SOLANA_ESCROW_PROGRAM_ID" default:"8jR5GeNzeweq35Uo84kGP3v1NcBaZWH5u62k7PxN4T2y"`
	Cluster         string        `envconfig:"SOLMARKET_SOLANA_CLUSTER" default:"devnet"`
	EscrowFeeBPS    int           `envconfig:"SOLMARKET_SOLANA_ESCROW_FEE_BPS" default:"200"`
	EscrowTTL       time.Duration `envconfig:"SOLMARKET_SOLANA_ESCROW_TTL" default:"72h"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"SOLMARKET_CRON_INTERVAL" default:"1h"`
	StaleCartMaxAge  time.Duration `envconfig:"SOLMARKET_CRON_STALE_CART_MAX_AGE" default:"720h"`
	LockTTL          time.Duration `envconfig:"SOLMARKET_CRON_LOCK_TTL" default:"2h"`
	MetricsPort      string        `envconfig:"SOLMARKET_CRON_METRICS_PORT" default:"9091"`
	ExpirySweepLimit int           `envconfig:"SOLMARKET_CRON_EXPIRY_SWEEP_LIMIT" default:"500"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOLMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOLMARKET_AUTO_MIGRATE" default:"false"`
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
