package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/papersnap/ocr-worker/internal/errors"
)

// Config holds all configuration for the OCR worker
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engines EnginesConfig `mapstructure:"engines"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// EnginesConfig holds per-engine settings
type EnginesConfig struct {
	Tesseract TesseractConfig `mapstructure:"tesseract"`
	Surya     SuryaConfig     `mapstructure:"surya"`
	GCV       GCVConfig       `mapstructure:"gcv"`
	DeepSeek  DeepSeekConfig  `mapstructure:"deepseek"`
	AllowStub bool            `mapstructure:"allow_stub"`
}

// TesseractConfig holds settings for the local tesseract engine
type TesseractConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Binary   string `mapstructure:"binary"`
	Language string `mapstructure:"language"`
	Timeout  int    `mapstructure:"timeout"` // seconds, CLI fallback
}

// SuryaConfig holds settings for the surya CLI engine
type SuryaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Binary  string `mapstructure:"binary"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// GCVConfig holds settings for the Google Cloud Vision engine
type GCVConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// DeepSeekConfig holds settings for the remote DeepSeek-OCR engine
type DeepSeekConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubmitTimeout int    `mapstructure:"submit_timeout"` // seconds
	HealthTimeout int    `mapstructure:"health_timeout"` // seconds
}

// Load loads configuration from file, env, and defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// If config file exists, load it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	// Environment variables (PAPERSNAP_SERVER_PORT, PAPERSNAP_ENGINES_GCV_ENABLED, etc.)
	v.SetEnvPrefix("PAPERSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The worker has always been driven by plain env var names; honor them on top
	// of the viper keys.
	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8001)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("engines.tesseract.enabled", true)
	v.SetDefault("engines.tesseract.binary", "tesseract")
	v.SetDefault("engines.tesseract.language", "eng")
	v.SetDefault("engines.tesseract.timeout", 300)

	v.SetDefault("engines.surya.enabled", true)
	v.SetDefault("engines.surya.binary", "surya-ocr")
	v.SetDefault("engines.surya.timeout", 300)

	v.SetDefault("engines.gcv.enabled", false)

	v.SetDefault("engines.deepseek.enabled", false)
	v.SetDefault("engines.deepseek.submit_timeout", 60)
	v.SetDefault("engines.deepseek.health_timeout", 3)

	v.SetDefault("engines.allow_stub", true)
}

// loadEnvOverrides applies the operator-facing env var names used since the first
// deployment of the worker. Viper's prefixed keys stay authoritative for anything
// not set here.
func loadEnvOverrides(cfg *Config) {
	if val := os.Getenv("OCR_ENGINE_TESSERACT_ENABLED"); val != "" {
		cfg.Engines.Tesseract.Enabled = envBool(val)
	}
	if val := os.Getenv("OCR_ENGINE_SURYA_ENABLED"); val != "" {
		cfg.Engines.Surya.Enabled = envBool(val)
	}
	if val := os.Getenv("OCR_ENGINE_GCV_ENABLED"); val != "" {
		cfg.Engines.GCV.Enabled = envBool(val)
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		cfg.Engines.GCV.CredentialsFile = creds
	}

	// Presence of the URL implicitly enables the remote engine.
	if url := os.Getenv("DEEPSEEK_OCR_URL"); url != "" {
		cfg.Engines.DeepSeek.URL = url
		cfg.Engines.DeepSeek.Enabled = true
	}

	if val := os.Getenv("ALLOW_STUB_OCR"); val != "" {
		cfg.Engines.AllowStub = envBool(val)
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return apperrors.New(apperrors.ErrConfigInvalid.Code,
			fmt.Sprintf("server.port out of range: %d", cfg.Server.Port))
	}
	if cfg.Engines.DeepSeek.Enabled && cfg.Engines.DeepSeek.URL == "" {
		return apperrors.New(apperrors.ErrConfigInvalid.Code,
			"engines.deepseek.url is required when deepseek is enabled")
	}
	return nil
}

func envBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
