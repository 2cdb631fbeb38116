package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Crypto    CryptoConfig
	Providers ProvidersConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      int // seconds, second-level file-info cache TTL
}

type SchedulerConfig struct {
	// RefreshIntervalSeconds is loaded from
	// SCHEDULER_REFRESH_INTERVAL_SECONDS, but nothing reads it: live
	// triggers are reconciled against sync_configs at startup and when the
	// dispatch surface's refresh route is called, never on a timer.
	RefreshIntervalSeconds int
}

// CryptoConfig holds the key the sync executor uses to decrypt
// Account.Credentials; nothing in the service encrypts with it.
type CryptoConfig struct {
	// CredentialsKey must decode to exactly 32 bytes (base64) for
	// nacl/secretbox; with an empty value credentials are used as stored.
	CredentialsKey string
}

// ProvidersConfig holds provider-specific defaults that are not
// per-account secrets: request timeouts and base URLs for self-hosted
// deployments like Alist.
type ProvidersConfig struct {
	BaiduBaseURL    string
	QuarkBaseURL    string
	AlistBaseURL    string
	RequestTimeoutS int
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisTTL, _ := strconv.Atoi(getEnv("REDIS_CACHE_TTL_SECONDS", "300"))
	redisEnabled := getEnv("REDIS_ENABLED", "true") == "true"
	refreshInterval, _ := strconv.Atoi(getEnv("SCHEDULER_REFRESH_INTERVAL_SECONDS", "60"))
	requestTimeout, _ := strconv.Atoi(getEnv("PROVIDER_REQUEST_TIMEOUT_SECONDS", "30"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "drivesync"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "drivesync"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      redisTTL,
		},
		Scheduler: SchedulerConfig{
			RefreshIntervalSeconds: refreshInterval,
		},
		Crypto: CryptoConfig{
			CredentialsKey: getEnv("CREDENTIALS_ENCRYPTION_KEY", ""),
		},
		Providers: ProvidersConfig{
			BaiduBaseURL:    getEnv("BAIDU_BASE_URL", "https://pan.baidu.com"),
			QuarkBaseURL:    getEnv("QUARK_BASE_URL", "https://drive-pc.quark.cn"),
			AlistBaseURL:    getEnv("ALIST_BASE_URL", ""),
			RequestTimeoutS: requestTimeout,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
