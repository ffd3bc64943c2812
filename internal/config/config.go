package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names an optional YAML file layered between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Orders   OrdersConfig   `koanf:"orders"`
	Reviews  ReviewsConfig  `koanf:"reviews"`
	Seed     SeedConfig     `koanf:"seed"`
}

type ServerConfig struct {
	Port        int    `koanf:"port"`
	AllowOrigin string `koanf:"allow_origin"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SeedConfig struct {
	Enabled       bool   `koanf:"enabled"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

type CatalogConfig struct {
	SiteName string `koanf:"site_name"`
	PageSize int    `koanf:"page_size"`
}

type OrdersConfig struct {
	PageSize int `koanf:"page_size"`
}

type ReviewsConfig struct {
	PageSize    int  `koanf:"page_size"`
	AutoApprove bool `koanf:"auto_approve"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        10000,
			AllowOrigin: "*",
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Catalog: CatalogConfig{
			SiteName: "UNIAPP E-commerce",
			PageSize: 12,
		},
		Orders: OrdersConfig{
			PageSize: 10,
		},
		Reviews: ReviewsConfig{
			PageSize: 5,
		},
		Seed: SeedConfig{
			AdminEmail: "admin@uniapp.local",
		},
	}
}

// Load reads .env (when present), then layers defaults, the optional YAML file
// and environment variables, in that order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

var envMappings = map[string]string{
	"port":                 "server.port",
	"cors_allow_origins":   "server.allow_origin",
	"database_url":         "database.url",
	"jwt_secret":           "auth.jwt_secret",
	"jwt_ttl":              "auth.token_ttl",
	"log_level":            "log.level",
	"log_format":           "log.format",
	"site_name":            "catalog.site_name",
	"catalog_page_size":    "catalog.page_size",
	"orders_page_size":     "orders.page_size",
	"reviews_page_size":    "reviews.page_size",
	"reviews_auto_approve": "reviews.auto_approve",
	"seed_demo_data":       "seed.enabled",
	"seed_admin_email":     "seed.admin_email",
	"seed_admin_password":  "seed.admin_password",
}

// envTransformFunc maps known environment variables to koanf paths.
// Unknown variables return "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Server.Port))
	}
	if c.Catalog.PageSize <= 0 || c.Orders.PageSize <= 0 || c.Reviews.PageSize <= 0 {
		errs = append(errs, errors.New("page sizes must be positive"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
