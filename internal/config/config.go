package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	Price      PriceConfig
	SMTP       SMTPConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type EncryptionConfig struct {
	// MnemonicKey is the process-wide secret protecting mnemonics at rest.
	MnemonicKey string
}

type PriceConfig struct {
	CoinGeckoURL string
	SkipURL      string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cypherd_wallet"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET_KEY", "dev-secret-key-change-in-production"),
			AccessTTL:  time.Duration(getEnvInt("JWT_ACCESS_TOKEN_EXPIRES", 3600)) * time.Second,
			RefreshTTL: time.Duration(getEnvInt("JWT_REFRESH_TOKEN_EXPIRES", 2592000)) * time.Second,
		},
		Encryption: EncryptionConfig{
			MnemonicKey: getEnv("ENCRYPTION_KEY", "dev-encryption-key-32-chars"),
		},
		Price: PriceConfig{
			CoinGeckoURL: getEnv("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),
			SkipURL:      getEnv("SKIP_API_URL", "https://api.skip.build/v2/fungible/msgs_direct"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", getEnv("SMTP_USERNAME", "")),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
