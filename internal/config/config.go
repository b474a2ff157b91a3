package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig      `json:"app"`
	MySQL    MySQLConfig    `json:"mysql"`
	Redis    RedisConfig    `json:"redis"`
	Catalog  CatalogConfig  `json:"catalog"`
	Security SecurityConfig `json:"security"`
}

// AppConfig is the base application configuration.
type AppConfig struct {
	Env      string `json:"env"`       // local / prod
	LogLevel string `json:"log_level"` // debug / info / warn / error
	HTTPAddr string `json:"http_addr"` // API listen address
}

// MySQLConfig is the database configuration.
type MySQLConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig is the session backend configuration.
type RedisConfig struct {
	Addr     string `json:"addr"` // host:port
	Password string `json:"password"`
}

// CatalogConfig points at the external character catalog API.
type CatalogConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"` // per-request timeout
}

// SecurityConfig holds auth-related settings.
type SecurityConfig struct {
	SessionTTL time.Duration `json:"session_ttl"` // sliding session lifetime
	BcryptCost int           `json:"bcrypt_cost"`
}

// UnmarshalJSON accepts duration strings like "5s" for the timeout.
func (c *CatalogConfig) UnmarshalJSON(data []byte) error {
	type Alias CatalogConfig
	aux := &struct {
		Timeout string `json:"timeout"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timeout != "" {
		duration, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout format: %w", err)
		}
		c.Timeout = duration
	}

	return nil
}

// UnmarshalJSON accepts duration strings like "24h" for the session TTL.
func (s *SecurityConfig) UnmarshalJSON(data []byte) error {
	type Alias SecurityConfig
	aux := &struct {
		SessionTTL string `json:"session_ttl"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.SessionTTL != "" {
		duration, err := time.ParseDuration(aux.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl format: %w", err)
		}
		s.SessionTTL = duration
	}

	return nil
}

// Load reads configs/config.json (or the given path) and applies
// defaults and environment overrides. A missing file is not an error;
// defaults plus environment are used. A .env file, if present, is
// loaded into the environment first.
func Load(configPath ...string) (*Config, error) {
	_ = godotenv.Load()

	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			HTTPAddr: ":8080",
		},
		MySQL: MySQLConfig{
			DSN: "root:password@tcp(localhost:3306)/apirick?parseTime=true&loc=Local",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://rickandmortyapi.com/api/character",
			Timeout: 5 * time.Second,
		},
		Security: SecurityConfig{
			SessionTTL: 24 * time.Hour,
			BcryptCost: 10,
		},
	}
}

// applyDefaults fills unset fields from the defaults.
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = defaults.MySQL.DSN
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = defaults.Catalog.BaseURL
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = defaults.Catalog.Timeout
	}
	if cfg.Security.SessionTTL == 0 {
		cfg.Security.SessionTTL = defaults.Security.SessionTTL
	}
	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = defaults.Security.BcryptCost
	}
}

// applyEnvOverrides lets the environment win over file values.
func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("db_host", "DB_HOST")
	_ = viper.BindEnv("db_password", "DB_PASSWORD")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}

	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.MySQL.DSN = v
	} else if hasAnyEnv("DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME") || viper.GetString("db_host") != "" {
		parsed := parseMySQLDSN(cfg.MySQL.DSN)
		if v := viper.GetString("db_host"); v != "" {
			port := getenvDefault("DB_PORT", "3306")
			parsed.Addr = v + ":" + port
		} else if v := os.Getenv("DB_PORT"); v != "" {
			host := parsed.Addr
			if strings.Contains(host, ":") {
				host = strings.Split(host, ":")[0]
			}
			parsed.Addr = host + ":" + v
		}
		if v := os.Getenv("DB_USER"); v != "" {
			parsed.User = v
		}
		if v := viper.GetString("db_password"); v != "" {
			parsed.Passwd = v
		}
		if v := os.Getenv("DB_NAME"); v != "" {
			parsed.DBName = v
		}
		cfg.MySQL.DSN = parsed.FormatDSN()
	}

	if v := viper.GetString("redis_addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := viper.GetString("redis_password"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("CATALOG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("CATALOG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Catalog.Timeout = d
		}
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Security.SessionTTL = d
		}
	}
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// parseMySQLDSN parses a DSN, falling back to a blank config so env
// parts can still be assembled on top of an invalid base.
func parseMySQLDSN(dsn string) *mysql.Config {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		parsed = mysql.NewConfig()
		parsed.Net = "tcp"
		parsed.Addr = "localhost:3306"
		parsed.ParseTime = true
	}
	return parsed
}
