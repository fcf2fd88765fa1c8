// Package config handles configuration loading for SahamAI.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"      yaml:"sec"`
	Price    PriceConfig    `mapstructure:"price"    yaml:"price"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Batch    BatchConfig    `mapstructure:"batch"    yaml:"batch"`
	Strategy StrategyConfig `mapstructure:"strategy" yaml:"strategy"`
}

// SECConfig holds SEC EDGAR access settings.
//
// UserAgent is required by SEC policy ("AppName/1.0 (contact: email)") and
// has no default: fetches fail fast without it.
type SECConfig struct {
	UserAgent  string   `mapstructure:"user_agent"  yaml:"user_agent"`
	TickerURLs []string `mapstructure:"ticker_urls" yaml:"ticker_urls"`
	DataURL    string   `mapstructure:"data_url"    yaml:"data_url"`
	TimeoutSec int      `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Retries    int      `mapstructure:"retries"     yaml:"retries"`
}

// PriceConfig holds daily-close price source settings.
type PriceConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// BatchConfig holds batch analysis settings.
type BatchConfig struct {
	DelayMs    int `mapstructure:"delay_ms"    yaml:"delay_ms"`
	MaxTickers int `mapstructure:"max_tickers" yaml:"max_tickers"`
}

// StrategyConfig points at the scoring strategy document.
type StrategyConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.sahamai/config.yaml (home directory)
//  3. /etc/sahamai/config.yaml (system)
//
// Environment variables override config file values.
// Format: SAHAMAI_<SECTION>_<KEY>, e.g., SAHAMAI_SEC_USER_AGENT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sahamai"))
	v.AddConfigPath("/etc/sahamai")

	v.SetEnvPrefix("SAHAMAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("SAHAMAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
// Note: sec.user_agent deliberately has no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sec.ticker_urls", []string{
		"https://www.sec.gov/files/company_tickers.json",
		"https://www.sec.gov/files/company_tickers_exchange.json",
	})
	v.SetDefault("sec.data_url", "https://data.sec.gov")
	v.SetDefault("sec.timeout_sec", 12)
	v.SetDefault("sec.retries", 3)

	v.SetDefault("price.base_url", "https://stooq.com")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8990)

	v.SetDefault("batch.delay_ms", 250)
	v.SetDefault("batch.max_tickers", 25)

	v.SetDefault("strategy.file", "./config/strategy.us.yaml")
}

// overrideFromEnv applies sensitive values that may only live in the
// environment, matching how deployments set SEC_USER_AGENT directly.
func overrideFromEnv(cfg *Config) {
	if ua := os.Getenv("SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
