// Package config selects the env file for a deployment mode and parses it
// into an immutable Config value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ModeProduction  = "produccion"
	ModeDevelopment = "desarrollo"

	ProductionFile  = "./.env.production"
	DevelopmentFile = "./.env.development"

	StoreMongo = "mongo"
	StoreFS    = "fs"
)

type Config struct {
	Mode    string
	EnvFile string

	SessionSecret string `env:"SESSION_SECRET"`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DB" env-default:"ecommerce"`

	Port string `env:"PORT" env-default:"8080"`

	RedisAddr     string        `env:"REDIS_HOST"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"PRODUCTS_CACHE_TTL" env-default:"1m"`

	ProductsStore string `env:"PRODUCTS_STORE" env-default:"mongo"`
	ProductsFile  string `env:"PRODUCTS_FILE" env-default:"./data/products.json"`

	AllowedOrigins []string `env:"CORS_ORIGINS" env-separator:","`
}

// IsProduction reports whether mode selects the production env file.
func IsProduction(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeProduction, "production", "prod":
		return true
	}
	return false
}

// EnvFile returns the env file path for mode.
func EnvFile(mode string) string {
	if IsProduction(mode) {
		return ProductionFile
	}
	return DevelopmentFile
}

// Load reads the env file for mode into the process environment, without
// overriding variables that are already set, and parses the result.
// A missing env file is not an error; loaded reports whether it was found.
func Load(mode string) (cfg Config, loaded bool, err error) {
	return LoadFile(mode, EnvFile(mode))
}

// LoadFile is Load with an explicit env file path.
func LoadFile(mode, path string) (cfg Config, loaded bool, err error) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, false, fmt.Errorf("lectura de %s: %w", path, err)
		}
	} else {
		loaded = true
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, loaded, fmt.Errorf("variables de entorno: %w", err)
	}

	cfg.Mode = mode
	cfg.EnvFile = path
	cfg.ProductsStore = strings.ToLower(cfg.ProductsStore)
	return cfg, loaded, nil
}

func (c Config) Production() bool {
	return IsProduction(c.Mode)
}

func (c Config) Addr() string {
	return ":" + c.Port
}
