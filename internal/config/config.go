package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application, loaded from environment variables or config files.
type Config struct {
	Port string // HTTP server port
	Env  string // Application environment (e.g., development, production)

	OAuthProvider       string // Provider name (dropbox, twitter)
	ConsumerKey         string // Provider consumer key
	ConsumerSecret      string // Provider consumer secret
	CallbackBaseURL     string // Public base URL the provider redirects back to
	ProviderTimeoutSecs int    // Deadline for every provider call in seconds

	CookieSalt       string // Server-side secret used to sign session cookies
	CookieName       string // Session cookie name
	CookieDomain     string // Cookie domain attribute, empty means unset
	CookiePath       string // Cookie path attribute
	CookieTTLSeconds int    // Cookie lifetime, 0 means a browser-session cookie
	CookieHash       string // Keyed digest used for the cookie signature (HS256, HS384, HS512)

	DBDriver          string // Durable store driver (postgres, sqlite)
	DBDSN             string // Full DSN, overrides the individual DB_* settings
	DBUser            string // Database user
	DBPort            string // Database port
	DBHost            string // Database host
	DBName            string // Database name
	DBPassword        string // Database password
	DBMaxOpenConns    int    // Maximum open connections in the pool
	DBMaxIdleConns    int    // Maximum idle connections in the pool
	DBConnMaxLifetime int    // Connection max lifetime in minutes
	DBConnMaxIdleTime int    // Connection max idle time in minutes

	CacheBackend         string // Pending-token cache (memory, redis, none)
	RedisURL             string // Redis connection URL when CacheBackend is redis
	CacheSize            int    // Maximum entries of the in-process cache
	PurgeIntervalMinutes int    // How often expired pending tokens are purged, 0 disables
	TokenEncryptionKey   string // Optional base64 AES-256 key sealing pending secrets at rest
}

// Load reads configuration from the .env file and environment variables, returning a Config struct.
// A missing .env file is not an error; the environment alone is enough.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("OAUTH_PROVIDER", "dropbox")
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 10)
	viper.SetDefault("COOKIE_NAME", "data")
	viper.SetDefault("COOKIE_PATH", "/")
	viper.SetDefault("COOKIE_TTL_SECONDS", 3600)
	viper.SetDefault("COOKIE_HASH", "HS256")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_USER", "slidebox_user")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_NAME", "slidebox")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 30)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 5)
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_SIZE", 10000)
	viper.SetDefault("PURGE_INTERVAL_MINUTES", 10)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return &Config{
		Port:                 viper.GetString("PORT"),
		Env:                  viper.GetString("ENV"),
		OAuthProvider:        viper.GetString("OAUTH_PROVIDER"),
		ConsumerKey:          viper.GetString("DROPBOX_CONSUMER_KEY"),
		ConsumerSecret:       viper.GetString("DROPBOX_CONSUMER_SECRET"),
		CallbackBaseURL:      viper.GetString("CALLBACK_BASE_URL"),
		ProviderTimeoutSecs:  viper.GetInt("PROVIDER_TIMEOUT_SECONDS"),
		CookieSalt:           viper.GetString("COOKIE_SALT"),
		CookieName:           viper.GetString("COOKIE_NAME"),
		CookieDomain:         viper.GetString("COOKIE_DOMAIN"),
		CookiePath:           viper.GetString("COOKIE_PATH"),
		CookieTTLSeconds:     viper.GetInt("COOKIE_TTL_SECONDS"),
		CookieHash:           viper.GetString("COOKIE_HASH"),
		DBDriver:             viper.GetString("DB_DRIVER"),
		DBDSN:                viper.GetString("DB_DSN"),
		DBUser:               viper.GetString("DB_USER"),
		DBPort:               viper.GetString("DB_PORT"),
		DBHost:               viper.GetString("DB_HOST"),
		DBName:               viper.GetString("DB_NAME"),
		DBPassword:           viper.GetString("DB_PASSWORD"),
		DBMaxOpenConns:       viper.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:       viper.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime:    viper.GetInt("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime:    viper.GetInt("DB_CONN_MAX_IDLE_TIME"),
		CacheBackend:         viper.GetString("CACHE_BACKEND"),
		RedisURL:             viper.GetString("REDIS_URL"),
		CacheSize:            viper.GetInt("CACHE_SIZE"),
		PurgeIntervalMinutes: viper.GetInt("PURGE_INTERVAL_MINUTES"),
		TokenEncryptionKey:   viper.GetString("TOKEN_ENCRYPTION_KEY"),
	}, nil
}

// Validate reports the first required setting that is missing.
func (c *Config) Validate() error {
	switch {
	case c.ConsumerKey == "":
		return fmt.Errorf("DROPBOX_CONSUMER_KEY is required")
	case c.ConsumerSecret == "":
		return fmt.Errorf("DROPBOX_CONSUMER_SECRET is required")
	case c.CallbackBaseURL == "":
		return fmt.Errorf("CALLBACK_BASE_URL is required")
	case c.CookieSalt == "":
		return fmt.Errorf("COOKIE_SALT is required")
	}
	return nil
}

// CallbackURL is where the provider sends the browser after consent.
func (c *Config) CallbackURL() string {
	return c.CallbackBaseURL + "/connect/verify"
}

// ProviderTimeout returns the provider call deadline.
func (c *Config) ProviderTimeout() time.Duration {
	if c.ProviderTimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}

// CookieTTL returns the session cookie lifetime.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.CookieTTLSeconds) * time.Second
}

// PurgeInterval returns how often expired pending tokens are removed.
func (c *Config) PurgeInterval() time.Duration {
	return time.Duration(c.PurgeIntervalMinutes) * time.Minute
}
