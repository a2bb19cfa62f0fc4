package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	StoreBackend  string `yaml:"store_backend"`
	DBDSN         string `yaml:"db_dsn"`
	WSOrigin      string `yaml:"ws_origin"`
	QuoteInterval string `yaml:"quote_interval"`
	LogLevel      string `yaml:"log_level"`

	QuoteTick time.Duration `yaml:"-"`
}

// Load reads an optional YAML file, then lets environment variables
// override individual fields. A .env file next to the binary is honored
// for development.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	c := Config{
		HTTPAddr:      ":8080",
		StoreBackend:  "memory",
		QuoteInterval: "1s",
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return c, errors.Wrap(err, "read config file")
			}
		} else if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, errors.Wrap(err, "parse config file")
		}
	}

	override(&c.HTTPAddr, "HTTP_ADDR")
	override(&c.StoreBackend, "STORE_BACKEND")
	override(&c.DBDSN, "DB_DSN")
	override(&c.WSOrigin, "WS_ORIGIN")
	override(&c.QuoteInterval, "QUOTE_INTERVAL")
	override(&c.LogLevel, "LOG_LEVEL")

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	if c.StoreBackend != "memory" && c.StoreBackend != "postgres" {
		return c, errors.Errorf("invalid store backend %q: use memory or postgres", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.DBDSN == "" {
		return c, errors.New("DB_DSN is required for the postgres backend")
	}
	tick, err := time.ParseDuration(c.QuoteInterval)
	if err != nil {
		return c, errors.Wrap(err, "parse quote interval")
	}
	c.QuoteTick = tick
	return c, nil
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
