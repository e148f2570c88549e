package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	StoreDriver           string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AnalyticsCacheSeconds int
	Timezone              string
	SeedDemo              bool
}

// Load reads configuration from the environment. A .env file, if any, is
// expected to be loaded into the environment before this is called.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("SQLITE_PATH", "kasirbuku.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ANALYTICS_CACHE_TTL_SECONDS", 30)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("SEED_DEMO", true)

	ttl := v.GetInt("ANALYTICS_CACHE_TTL_SECONDS")
	if ttl < 1 {
		ttl = 30
	}

	return Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		StoreDriver:           strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		SQLitePath:            v.GetString("SQLITE_PATH"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		AnalyticsCacheSeconds: ttl,
		Timezone:              v.GetString("TIMEZONE"),
		SeedDemo:              v.GetBool("SEED_DEMO"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AnalyticsCacheTTL() time.Duration {
	return time.Duration(c.AnalyticsCacheSeconds) * time.Second
}

// Location resolves Timezone, which decides where a day starts.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
