package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" or "5m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the application configuration
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Host     string `yaml:"host"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		Port     string `yaml:"port"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	Auth struct {
		ServiceURL   string `yaml:"service_url"`
		CookieDomain string `yaml:"cookie_domain"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"auth"`
	Chat struct {
		StreamTimeout   Duration `yaml:"stream_timeout"`
		CheckpointChars int      `yaml:"checkpoint_chars"`
	} `yaml:"chat"`
	Models struct {
		Default         string `yaml:"default"`
		DefaultBaseURL  string `yaml:"default_base_url"`
		DefaultAPIKey   string `yaml:"default_api_key"`
		DefaultModel    string `yaml:"default_model"`
		ExternalPrefix  string `yaml:"external_prefix"`
		ExternalBaseURL string `yaml:"external_base_url"`
	} `yaml:"models"`
	Memory struct {
		BaseURL string   `yaml:"base_url"`
		APIKey  string   `yaml:"api_key"`
		TTL     Duration `yaml:"ttl"`
		Limit   int      `yaml:"limit"`
		Backend string   `yaml:"backend"` // "memory" or "redis"
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"memory"`
	Search struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"search"`
	Cloudinary struct {
		CloudName string `yaml:"cloud_name"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"cloudinary"`
	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		PriceMonthly  string `yaml:"price_monthly"`
		PriceYearly   string `yaml:"price_yearly"`
		SuccessURL    string `yaml:"success_url"`
		CancelURL     string `yaml:"cancel_url"`
	} `yaml:"stripe"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// GlobalConfig is the global configuration instance
var GlobalConfig Config

// DSN generates the PostgreSQL DSN from database config
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Database.Host,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.Port,
		c.Database.SSLMode,
	)
}

// LoadConfig reads and parses the YAML configuration file into GlobalConfig
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, &GlobalConfig); err != nil {
		return err
	}

	applyEnvOverrides(&GlobalConfig)
	applyDefaults(&GlobalConfig)

	// Validate required fields
	if GlobalConfig.Database.Host == "" {
		log.Fatal("database.host is required in config.yaml")
	}
	if GlobalConfig.Database.User == "" {
		log.Fatal("database.user is required in config.yaml")
	}
	if GlobalConfig.Database.DBName == "" {
		log.Fatal("database.dbname is required in config.yaml")
	}
	if GlobalConfig.Database.Port == "" {
		log.Fatal("database.port is required in config.yaml")
	}
	if GlobalConfig.Auth.ServiceURL == "" {
		log.Fatal("auth.service_url is required in config.yaml")
	}
	if GlobalConfig.Server.Port < 1 || GlobalConfig.Server.Port > 65535 {
		log.Fatal("server.port must be between 1 and 65535")
	}

	return nil
}

// applyEnvOverrides lets credentials come from the environment instead of
// being committed to the config file.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"DATABASE_PASSWORD", &cfg.Database.Password},
		{"GOOGLE_GENERATIVE_AI_API_KEY", &cfg.Models.DefaultAPIKey},
		{"MEM0_API_KEY", &cfg.Memory.APIKey},
		{"TAVILY_API_KEY", &cfg.Search.APIKey},
		{"CLOUDINARY_CLOUD_NAME", &cfg.Cloudinary.CloudName},
		{"CLOUDINARY_API_KEY", &cfg.Cloudinary.APIKey},
		{"CLOUDINARY_API_SECRET", &cfg.Cloudinary.APISecret},
		{"STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey},
		{"STRIPE_WEBHOOK_SECRET", &cfg.Stripe.WebhookSecret},
		{"STRIPE_PRICE_MONTHLY", &cfg.Stripe.PriceMonthly},
		{"STRIPE_PRICE_YEARLY", &cfg.Stripe.PriceYearly},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Chat.StreamTimeout == 0 {
		cfg.Chat.StreamTimeout = Duration(30 * time.Second)
	}
	if cfg.Chat.CheckpointChars == 0 {
		cfg.Chat.CheckpointChars = 500
	}
	if cfg.Models.Default == "" {
		cfg.Models.Default = "google"
	}
	if cfg.Models.DefaultModel == "" {
		cfg.Models.DefaultModel = "gemini-2.0-flash"
	}
	if cfg.Models.ExternalPrefix == "" {
		cfg.Models.ExternalPrefix = "openrouter:"
	}
	if cfg.Memory.TTL == 0 {
		cfg.Memory.TTL = Duration(5 * time.Minute)
	}
	if cfg.Memory.Limit == 0 {
		cfg.Memory.Limit = 10
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = "memory"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
