package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream  UpstreamConfig
	Session   SessionConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Listing   ListingConfig
	Cart      CartConfig
	Dashboard DashboardConfig
	Reference ReferenceConfig
	Payments  PaymentsConfig
	Slips     SlipsConfig
}

// UpstreamConfig points the gateway at the university backend.
type UpstreamConfig struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string
}

// SessionConfig controls workspace lifetime and the application context store.
type SessionConfig struct {
	Store           string
	TTL             time.Duration
	JanitorInterval time.Duration
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig addresses the shared Redis. URL, when set, wins over the discrete fields.
type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ListingConfig holds per-table page sizes. Zero means the whole filtered set is one page.
type ListingConfig struct {
	StudentsPageSize     int
	UniversitiesPageSize int
	PaymentsPageSize     int
	ActivityPageSize     int
}

// CartConfig tunes course registration pricing and catalog sourcing.
type CartConfig struct {
	UnitRate      int64
	CatalogSource string
}

// DashboardConfig governs the dashboard default range and cache tuning.
type DashboardConfig struct {
	DefaultRangeDays int
	CacheTTL         time.Duration
}

// ReferenceConfig governs reference data caching.
type ReferenceConfig struct {
	CacheTTL time.Duration
}

// PaymentsConfig selects the payment provider for registration checkout.
type PaymentsConfig struct {
	Provider          string
	MidtransServerKey string
	MidtransProd      bool
	Currency          string
	WorkerConcurrency int
	WorkerRetries     int
}

// SlipsConfig configures registration slip storage and signed downloads.
type SlipsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	Retention       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:      strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:      parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		ServiceToken: v.GetString("UPSTREAM_SERVICE_TOKEN"),
	}

	cfg.Session = SessionConfig{
		Store:           strings.ToLower(v.GetString("SESSION_STORE")),
		TTL:             parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		JanitorInterval: parseDuration(v.GetString("SESSION_JANITOR_INTERVAL"), 5*time.Minute),
	}

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("ENABLE_DATABASE"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Listing = ListingConfig{
		StudentsPageSize:     v.GetInt("LIST_STUDENTS_PAGE_SIZE"),
		UniversitiesPageSize: v.GetInt("LIST_UNIVERSITIES_PAGE_SIZE"),
		PaymentsPageSize:     v.GetInt("LIST_PAYMENTS_PAGE_SIZE"),
		ActivityPageSize:     v.GetInt("LIST_ACTIVITY_PAGE_SIZE"),
	}

	unitRate := v.GetInt64("CART_UNIT_RATE")
	if unitRate <= 0 {
		unitRate = 1000
	}
	cfg.Cart = CartConfig{
		UnitRate:      unitRate,
		CatalogSource: strings.ToLower(v.GetString("CART_CATALOG_SOURCE")),
	}

	cfg.Dashboard = DashboardConfig{
		DefaultRangeDays: v.GetInt("DASHBOARD_DEFAULT_RANGE_DAYS"),
		CacheTTL:         parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reference = ReferenceConfig{
		CacheTTL: parseDuration(v.GetString("REFERENCE_CACHE_TTL"), time.Hour),
	}

	cfg.Payments = PaymentsConfig{
		Provider:          strings.ToLower(v.GetString("PAYMENT_PROVIDER")),
		MidtransServerKey: v.GetString("MIDTRANS_SERVER_KEY"),
		MidtransProd:      v.GetBool("MIDTRANS_PRODUCTION"),
		Currency:          v.GetString("PAYMENT_CURRENCY"),
		WorkerConcurrency: v.GetInt("PAYMENT_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PAYMENT_WORKER_RETRIES"),
	}

	cfg.Slips = SlipsConfig{
		StorageDir:      v.GetString("SLIPS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("SLIPS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("SLIPS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SLIPS_CLEANUP_INTERVAL"), time.Hour),
		Retention:       parseDuration(v.GetString("SLIPS_RETENTION"), 0),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:4000/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_SERVICE_TOKEN", "")

	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_JANITOR_INTERVAL", "5m")

	v.SetDefault("ENABLE_DATABASE", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "uniportal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "uniportal-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LIST_STUDENTS_PAGE_SIZE", 0)
	v.SetDefault("LIST_UNIVERSITIES_PAGE_SIZE", 20)
	v.SetDefault("LIST_PAYMENTS_PAGE_SIZE", 20)
	v.SetDefault("LIST_ACTIVITY_PAGE_SIZE", 20)

	v.SetDefault("CART_UNIT_RATE", 1000)
	v.SetDefault("CART_CATALOG_SOURCE", "remote")

	v.SetDefault("DASHBOARD_DEFAULT_RANGE_DAYS", 30)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("REFERENCE_CACHE_TTL", "1h")

	v.SetDefault("PAYMENT_PROVIDER", "mock")
	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_PRODUCTION", false)
	v.SetDefault("PAYMENT_CURRENCY", "NGN")
	v.SetDefault("PAYMENT_WORKER_CONCURRENCY", 1)
	v.SetDefault("PAYMENT_WORKER_RETRIES", 3)

	v.SetDefault("SLIPS_STORAGE_DIR", "./slips")
	v.SetDefault("SLIPS_SIGNED_URL_SECRET", "dev_slips_secret")
	v.SetDefault("SLIPS_SIGNED_URL_TTL", "24h")
	v.SetDefault("SLIPS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("SLIPS_RETENTION", "0")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
