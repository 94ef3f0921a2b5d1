package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VAVIP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VAVIP_DB_DSN"
	EnvDBHost = "VAVIP_DB_HOST"
	EnvDBUser = "VAVIP_DB_USER"
	EnvDBName = "VAVIP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	Cache         CacheConfig
	CORS          CORSConfig
	WS            WSConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"VAVIP_APP_ENV" required:"true"`
	Port         string `envconfig:"VAVIP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VAVIP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VAVIP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VAVIP_DB_DSN"`
	Driver string `envconfig:"VAVIP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VAVIP_DB_HOST"`
	LegacyPort     int    `envconfig:"VAVIP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VAVIP_DB_USER"`
	LegacyPassword string `envconfig:"VAVIP_DB_PASSWORD"`
	LegacyName     string `envconfig:"VAVIP_DB_NAME"`
	LegacySSLMode  string `envconfig:"VAVIP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VAVIP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VAVIP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VAVIP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VAVIP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VAVIP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VAVIP_REDIS_ADDR"`
	Password     string        `envconfig:"VAVIP_REDIS_PASSWORD"`
	DB           int           `envconfig:"VAVIP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VAVIP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VAVIP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VAVIP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VAVIP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VAVIP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VAVIP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VAVIP_JWT_ISSUER" default:"vavip-backend"`
	ExpirationMinutes      int    `envconfig:"VAVIP_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"VAVIP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VAVIP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VAVIP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VAVIP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VAVIP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VAVIP_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"VAVIP_OTP_TTL" default:"5m"`
	MaxAttempts int           `envconfig:"VAVIP_OTP_MAX_ATTEMPTS" default:"5"`
	CodeLength  int           `envconfig:"VAVIP_OTP_CODE_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"VAVIP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginTargetLimit    int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_LOGIN_TARGET_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	OTPSendWindow       time.Duration `envconfig:"VAVIP_AUTH_RATE_LIMIT_OTP_WINDOW" default:"1m"`
	OTPSendTargetLimit  int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_OTP_TARGET_LIMIT" default:"3"`
	OTPSendIPLimit      int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
	RegisterWindow      time.Duration `envconfig:"VAVIP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterTargetLimit int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_REGISTER_TARGET_LIMIT" default:"3"`
	RegisterIPLimit     int           `envconfig:"VAVIP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CacheConfig struct {
	FeaturedTTL   time.Duration `envconfig:"VAVIP_CACHE_FEATURED_TTL" default:"30m"`
	CategoriesTTL time.Duration `envconfig:"VAVIP_CACHE_CATEGORIES_TTL" default:"1h"`
	ContactsTTL   time.Duration `envconfig:"VAVIP_CACHE_CONTACTS_TTL" default:"1h"`
	DashboardTTL  time.Duration `envconfig:"VAVIP_CACHE_DASHBOARD_TTL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VAVIP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type WSConfig struct {
	SendBuffer     int           `envconfig:"VAVIP_WS_SEND_BUFFER" default:"64"`
	WriteWait      time.Duration `envconfig:"VAVIP_WS_WRITE_WAIT" default:"10s"`
	PongWait       time.Duration `envconfig:"VAVIP_WS_PONG_WAIT" default:"60s"`
	MaxMessageSize int64         `envconfig:"VAVIP_WS_MAX_MESSAGE_SIZE" default:"4096"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VAVIP_AUTO_MIGRATE" default:"false"`
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
