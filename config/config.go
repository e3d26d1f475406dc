package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultModrinthAPIURL   = "https://api.modrinth.com/v2"
	DefaultCurseForgeAPIURL = "https://curse.nikky.moe/api"
	DefaultUserAgent        = "modpack-downloader/dev (unknown-user)"
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	UserAgent         string        `mapstructure:"USERAGENT"`
	ModrinthAPIURL    string        `mapstructure:"MODRINTH_API_URL"`
	CurseForgeAPIURL  string        `mapstructure:"CURSEFORGE_API_URL"`
	DataDir           string        `mapstructure:"DATA_DIR"`
	OutputDir         string        `mapstructure:"OUTPUT_DIR"`
	RequestsPerSecond float64       `mapstructure:"REQUESTS_PER_SECOND"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	DatabasePath      string        `mapstructure:"-"` // Not from env, derived
}

var envKeys = []string{
	"USERAGENT",
	"MODRINTH_API_URL",
	"CURSEFORGE_API_URL",
	"DATA_DIR",
	"OUTPUT_DIR",
	"REQUESTS_PER_SECOND",
	"HTTP_TIMEOUT",
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}

	processConfigDefaults(&config)
	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// processConfigDefaults fills in everything the user left unset.
func processConfigDefaults(config *Config) {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
		slog.Warn("USERAGENT not set in config or environment, using default.")
	}
	if config.ModrinthAPIURL == "" {
		config.ModrinthAPIURL = DefaultModrinthAPIURL
	}
	if config.CurseForgeAPIURL == "" {
		config.CurseForgeAPIURL = DefaultCurseForgeAPIURL
	}
	if config.DataDir == "" {
		config.DataDir = defaultDataDir()
	}
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 60 * time.Second
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".modpack-downloader"
	}
	return filepath.Join(dir, "modpack-downloader")
}

// validateAndEnsureDirectories creates the data and output directories and
// derives the database path.
func validateAndEnsureDirectories(config *Config) error {
	if config.DataDir == "" {
		slog.Error("DATA_DIR is not set")
		return fmt.Errorf("DATA_DIR is required")
	}
	if config.OutputDir == "" {
		slog.Error("OUTPUT_DIR is not set")
		return fmt.Errorf("OUTPUT_DIR is required")
	}

	for _, dir := range []string{config.DataDir, config.OutputDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			slog.Info("Directory does not exist, creating it", "path", dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Error("Failed to create directory", "path", dir, "error", err)
				return err
			}
		} else if err != nil {
			slog.Error("Failed to check directory", "path", dir, "error", err)
			return err
		}
	}

	config.DatabasePath = filepath.Join(config.DataDir, "modpacks.db")
	return nil
}
