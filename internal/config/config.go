package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding config file values.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvAdminAPIKey  = "ADMIN_API_KEY"
)

// Defaults applied when the config file omits a field.
const (
	defaultDatabaseDSN = "./sms-gateway.db"
	defaultListenPort  = 8380
)

var validate = validator.New()

// DLRForwarding configures delivery-report forwarding to an external
// collector.
type DLRForwarding struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"omitempty,url"`
}

// Config holds the gateway configuration.
type Config struct {
	Port        int    `yaml:"port" validate:"gt=0,lte=65535"`
	DatabaseDSN string `yaml:"database-dsn" validate:"required"`

	// BootstrapAdminKey seeds the key set on an empty database. It is
	// never consulted once any key exists.
	BootstrapAdminKey string `yaml:"bootstrap-admin-key"`

	DLRForwarding DLRForwarding `yaml:"dlr-forwarding"`
}

// ResolveConfigPath normalizes the config path. An empty path falls
// back to the CONFIG_PATH environment variable, then to ./config.yaml.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error:
// the defaults plus environment carry a dev setup.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Port:        defaultListenPort,
		DatabaseDSN: defaultDatabaseDSN,
	}

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case os.IsNotExist(errRead):
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if key := strings.TrimSpace(os.Getenv(EnvAdminAPIKey)); key != "" {
		cfg.BootstrapAdminKey = key
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultListenPort
	}
	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}

	if errValidate := validate.Struct(cfg); errValidate != nil {
		return Config{}, fmt.Errorf("validate config: %w", errValidate)
	}
	return cfg, nil
}
