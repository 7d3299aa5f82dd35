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
	Firebase      FirebaseConfig
	FlightLabs    FlightLabsConfig
	Cron          CronConfig
	Pricing       PricingConfig
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
	Env          string `envconfig:"LASER_APP_ENV" required:"true"`
	Port         string `envconfig:"LASER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LASER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LASER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LASER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LASER_DB_DSN"`
	Driver string `envconfig:"LASER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LASER_DB_HOST"`
	LegacyPort     int    `envconfig:"LASER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LASER_DB_USER"`
	LegacyPassword string `envconfig:"LASER_DB_PASSWORD"`
	LegacyName     string `envconfig:"LASER_DB_NAME"`
	LegacySSLMode  string `envconfig:"LASER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LASER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LASER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LASER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LASER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LASER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LASER_REDIS_ADDR"`
	Password     string        `envconfig:"LASER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LASER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LASER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LASER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LASER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LASER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LASER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LASER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LASER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LASER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LASER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LASER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LASER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LASER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LASER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LASER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LASER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LASER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LASER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LASER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LASER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LASER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LASER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LASER_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LASER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LASER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LASER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DealsTopic        string `envconfig:"LASER_PUBSUB_DEALS_TOPIC" default:"laser-deal-events"`
	DealsSubscription string `envconfig:"LASER_PUBSUB_DEALS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LASER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LASER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LASER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FirebaseConfig struct {
	CredentialsFile string `envconfig:"LASER_FIREBASE_CREDENTIALS_FILE"`
}

type FlightLabsConfig struct {
	BaseURL   string        `envconfig:"LASER_FLIGHTLABS_BASE_URL" default:"https://app.goflightlabs.com"`
	AccessKey string        `envconfig:"LASER_FLIGHTLABS_ACCESS_KEY"`
	Timeout   time.Duration `envconfig:"LASER_FLIGHTLABS_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	AirportRefreshInterval time.Duration `envconfig:"LASER_CRON_AIRPORT_REFRESH_INTERVAL" default:"6h"`
	OfferSweepInterval     time.Duration `envconfig:"LASER_CRON_OFFER_SWEEP_INTERVAL" default:"1h"`
	OfferMaxAge            time.Duration `envconfig:"LASER_CRON_OFFER_MAX_AGE" default:"720h"`
	MetricsPort            string        `envconfig:"LASER_CRON_METRICS_PORT" default:"9090"`
	LockTTL                time.Duration `envconfig:"LASER_CRON_LOCK_TTL" default:"10m"`
}

type PricingConfig struct {
	DefaultWeightFactor string `envconfig:"LASER_PRICING_DEFAULT_WEIGHT_FACTOR" default:"1.0"`
	DefaultMaxWeight    string `envconfig:"LASER_PRICING_DEFAULT_MAX_WEIGHT" default:"30"`
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
