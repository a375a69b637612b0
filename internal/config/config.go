package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Log controls the global logger.
type Log struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	Component string `env:"LOG_COMPONENT" envDefault:"catalog_api"`
	Source    bool   `env:"LOG_SOURCE"`
}

// DB holds MySQL connection settings. MYSQL_DSN wins when set,
// otherwise the DSN is assembled from the individual fields.
type DB struct {
	DSN      string `env:"MYSQL_DSN"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASSWORD" envDefault:"root"`
	Name     string `env:"DB_NAME" envDefault:"catalog"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Search locates the on-disk bleve index for category listings.
type Search struct {
	IndexPath string `env:"SEARCH_INDEX_PATH" envDefault:"data/categories.bleve"`
}

type HTTP struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type JWT struct {
	Secret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type App struct {
	Env string `env:"APP_ENV" envDefault:"development"`
}

type Config struct {
	App    App
	Log    Log
	DB     DB
	Redis  Redis
	Search Search
	HTTP   HTTP
	JWT    JWT
}

// New loads configuration from the environment. A .env file in the
// working directory is applied first when present.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	return cfg, nil
}
