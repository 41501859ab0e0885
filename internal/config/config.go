package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Supported backends
const (
	BackendSupabase = "supabase"
	BackendLocal    = "local"
)

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBToken        string
	Language         string  // catalog language, e.g. pt-BR
	Region           string  // catalog region, e.g. BR (default: derived from Language)
	CatalogRateLimit float64 // requests per second (default: 40)

	// Backend
	Backend         string // supabase or local
	SupabaseURL     string
	SupabaseAnonKey string

	// HTTP
	HTTPTimeout time.Duration // per outbound request (default: 15s)

	// Profile creation
	ProfileRetryAttempts int           // default: 3
	ProfileRetryDelay    time.Duration // default: 1s

	// Server
	ServerPort  string
	RefreshCron string // schedule of the home category refresh

	// Paths
	ConfigDir    string
	SessionFile  string // $CONFIG_DIR/session.json
	DatabaseFile string // $CONFIG_DIR/cinematch.db
	AvatarDir    string // $CONFIG_DIR/avatars

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("BACKEND", BackendSupabase)
	viper.SetDefault("TMDB_LANGUAGE", "pt-BR")
	viper.SetDefault("CATALOG_RATE_LIMIT", 40)
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PROFILE_RETRY_ATTEMPTS", 3)
	viper.SetDefault("PROFILE_RETRY_DELAY_MS", 1000)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REFRESH_CRON", "*/30 * * * *")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir, err := resolveConfigDir(viper.GetString("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// TMDB
		TMDBToken:        viper.GetString("TMDB_API_TOKEN"),
		Language:         viper.GetString("TMDB_LANGUAGE"),
		Region:           viper.GetString("TMDB_REGION"),
		CatalogRateLimit: viper.GetFloat64("CATALOG_RATE_LIMIT"),

		// Backend
		Backend:         viper.GetString("BACKEND"),
		SupabaseURL:     viper.GetString("SUPABASE_URL"),
		SupabaseAnonKey: viper.GetString("SUPABASE_ANON_KEY"),

		// HTTP
		HTTPTimeout: time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,

		// Profile creation
		ProfileRetryAttempts: viper.GetInt("PROFILE_RETRY_ATTEMPTS"),
		ProfileRetryDelay:    time.Duration(viper.GetInt("PROFILE_RETRY_DELAY_MS")) * time.Millisecond,

		// Server
		ServerPort:  viper.GetString("SERVER_PORT"),
		RefreshCron: viper.GetString("REFRESH_CRON"),

		// Paths
		ConfigDir:    configDir,
		SessionFile:  filepath.Join(configDir, "session.json"),
		DatabaseFile: filepath.Join(configDir, "cinematch.db"),
		AvatarDir:    filepath.Join(configDir, "avatars"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and fills derived values
func (c *Config) Validate() error {
	if c.TMDBToken == "" {
		return fmt.Errorf("TMDB_API_TOKEN is required")
	}

	tag, err := language.Parse(c.Language)
	if err != nil {
		return fmt.Errorf("invalid TMDB_LANGUAGE %q: %w", c.Language, err)
	}
	if c.Region == "" {
		region, _ := tag.Region()
		c.Region = region.String()
	}

	switch c.Backend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY is required")
		}
	case BackendLocal:
	default:
		return fmt.Errorf("unknown BACKEND %q (expected %s or %s)", c.Backend, BackendSupabase, BackendLocal)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.ProfileRetryAttempts < 1 {
		return fmt.Errorf("PROFILE_RETRY_ATTEMPTS must be at least 1")
	}
	if c.CatalogRateLimit <= 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be positive")
	}

	return nil
}

// Locale returns the parsed catalog language
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

func resolveConfigDir(configDir string) (string, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "cinematch"), nil
	}

	// Convert relative path to absolute path
	absPath, err := filepath.Abs(configDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
	}
	return absPath, nil
}
