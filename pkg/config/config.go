package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ANNOTATOR_SERVER_PORT
const EnvPrefix = "ANNOTATOR"

// DefaultConfigFile is read when no other file is given
const DefaultConfigFile = "./config/settings.yaml"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	return InitWithFile(DefaultConfigFile)
}

// InitWithFile is Init with an explicit settings file. Only the first call
// in a process has any effect.
func InitWithFile(path string) error {
	once.Do(func() {
		initErr = load(path)
	})
	return initErr
}

// load does the actual work of Init without the once guard
func load(path string) error {
	// A .env file next to the binary seeds the environment; real env wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Clean(path)
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		// Missing file means defaults plus env vars
		if !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetInt64 returns an int64 config value
func GetInt64(key string) int64 {
	return viper.GetInt64(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// IsProduction reports whether the environment key names a production deploy
func IsProduction() bool {
	env := viper.GetString("environment")
	return env == "production" || env == "prod"
}

// placeholderSecrets may never be used as the signing key in production
var placeholderSecrets = []string{
	"",
	"changeme",
	"CHANGEME",
	"YOUR_SECRET_HERE",
	"dev-secret-change-me",
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetInt64("upload.max_bytes") <= 0 {
		viper.Set("upload.max_bytes", 32<<20)
	}

	if viper.GetDuration("auth.token_ttl") <= 0 {
		viper.Set("auth.token_ttl", 24*time.Hour)
	}

	if path := viper.GetString("monitoring.metrics_path"); !strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid metrics path %q: must start with /", path)
	}

	secret := viper.GetString("auth.jwt_secret")
	for _, placeholder := range placeholderSecrets {
		if secret == placeholder {
			if IsProduction() {
				return fmt.Errorf("invalid JWT secret: cannot use placeholder values in production")
			}
			fmt.Fprintln(os.Stderr, "Warning: JWT secret is using a placeholder value - this is insecure!")
			break
		}
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 32 << 20
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "annotator_session"
	}

	if c.Monitoring.MetricsPath == "" {
		c.Monitoring.MetricsPath = "/metrics"
	}

	return nil
}

// Addr joins host and port for http.Server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// setDefaults sets default configuration values
func setDefaults() {
	// Environment defaults
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.path", "./data/annotator.db")
	viper.SetDefault("database.verbose", false)
	viper.SetDefault("database.auto_migrate", true)

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	viper.SetDefault("auth.token_ttl", 24*time.Hour)
	viper.SetDefault("auth.cookie_name", "annotator_session")
	viper.SetDefault("auth.secure_cookie", false)

	// Upload defaults
	viper.SetDefault("upload.max_bytes", 32<<20)

	// Rate limiting defaults, requests per minute per client
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.endpoints", map[string]int{
		"auth":    20,
		"admin":   60,
		"default": 300,
	})

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.cors_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors_headers", []string{"Content-Type", "Authorization"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Docs defaults
	viper.SetDefault("docs.enabled", true)

	// Render cache defaults
	viper.SetDefault("render.cache_bytes", 16<<20)
	viper.SetDefault("render.cache_ttl", time.Hour)
}
