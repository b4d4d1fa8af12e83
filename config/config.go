package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Limits carries the client-side validation bounds. They are configuration,
// not per-call-site constants; amounts are Colombian pesos.
type Limits struct {
	MaxCartItems         int     `yaml:"max_cart_items" envconfig:"MAX_CART_ITEMS"`
	MaxProductQuantity   int     `yaml:"max_product_quantity" envconfig:"MAX_PRODUCT_QUANTITY"`
	MinOrderAmount       float64 `yaml:"min_order_amount" envconfig:"MIN_ORDER_AMOUNT"`
	MaxOrderAmount       float64 `yaml:"max_order_amount" envconfig:"MAX_ORDER_AMOUNT"`
	MaxProductNameLength int     `yaml:"max_product_name_length" envconfig:"MAX_PRODUCT_NAME_LENGTH"`
	MaxDescriptionLength int     `yaml:"max_description_length" envconfig:"MAX_DESCRIPTION_LENGTH"`
	MaxNotesLength       int     `yaml:"max_notes_length" envconfig:"MAX_NOTES_LENGTH"`
}

// DefaultLimits returns the stock validation bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxCartItems:         50,
		MaxProductQuantity:   10,
		MinOrderAmount:       1000,
		MaxOrderAmount:       500000,
		MaxProductNameLength: 100,
		MaxDescriptionLength: 500,
		MaxNotesLength:       200,
	}
}

type Config struct {
	APIURL      string        `yaml:"api_url" envconfig:"CAFE_API_URL"`
	WSURL       string        `yaml:"ws_url" envconfig:"CAFE_WS_URL"`
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"CAFE_HTTP_TIMEOUT"`
	LogLevel    string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogJSON     bool          `yaml:"log_json" envconfig:"LOG_JSON"`
	StateDir    string        `yaml:"state_dir" envconfig:"CAFE_STATE_DIR"`
	Limits      Limits        `yaml:"limits"`
}

// Load resolves configuration in three layers: an optional YAML file, then
// .env, then environment variables. Environment wins over the file; anything
// still unset falls back to a default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: error loading .env file: %v", err)
		}
	}

	cfg := &Config{}

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			log.Printf("Warning: could not read config file %s: %v", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	cfg.applyDefaults()

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", cfg.StateDir, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8080/api"
	}
	if c.WSURL == "" {
		c.WSURL = "ws://localhost:8080/ws"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}

	defaults := DefaultLimits()
	if c.Limits.MaxCartItems <= 0 {
		c.Limits.MaxCartItems = defaults.MaxCartItems
	}
	if c.Limits.MaxProductQuantity <= 0 {
		c.Limits.MaxProductQuantity = defaults.MaxProductQuantity
	}
	if c.Limits.MinOrderAmount <= 0 {
		c.Limits.MinOrderAmount = defaults.MinOrderAmount
	}
	if c.Limits.MaxOrderAmount <= 0 {
		c.Limits.MaxOrderAmount = defaults.MaxOrderAmount
	}
	if c.Limits.MaxProductNameLength <= 0 {
		c.Limits.MaxProductNameLength = defaults.MaxProductNameLength
	}
	if c.Limits.MaxDescriptionLength <= 0 {
		c.Limits.MaxDescriptionLength = defaults.MaxDescriptionLength
	}
	if c.Limits.MaxNotesLength <= 0 {
		c.Limits.MaxNotesLength = defaults.MaxNotesLength
	}
}

func configFilePath() string {
	if path := os.Getenv("CAFE_CONFIG_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cafe-limon", "config.yaml")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cafe-limon"
	}
	return filepath.Join(home, ".cafe-limon", "state")
}
