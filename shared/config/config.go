package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type StoreConfig struct {
	Type          string `yaml:"type"`
	SQLitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
}

type ImageConfig struct {
	JPEGQuality   int `yaml:"jpegQuality"`
	ThumbnailSize int `yaml:"thumbnailSize"`
}

type ServiceConfig struct {
	Port          int           `yaml:"port"`
	LogLevel      string        `yaml:"logLevel"`
	DocumentsDir  string        `yaml:"documentsDir"`
	AutoLockAfter time.Duration `yaml:"autoLockAfter"`
	Store         StoreConfig   `yaml:"store"`
	Image         ImageConfig   `yaml:"image"`
}

func Default() *ServiceConfig {
	return &ServiceConfig{
		Port:         8080,
		LogLevel:     "info",
		DocumentsDir: "./documents",
		Store: StoreConfig{
			Type:       StoreSQLite,
			SQLitePath: "./namestofaces.db",
			RedisAddr:  "localhost:6379",
		},
		Image: ImageConfig{
			JPEGQuality:   80,
			ThumbnailSize: 300,
		},
	}
}

// LoadConfig reads the YAML file at configPath over the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func applyEnv(config *ServiceConfig) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		config.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("DOCUMENTS_DIR"); v != "" {
		config.DocumentsDir = v
	}
	if v := os.Getenv("STORE_TYPE"); v != "" {
		config.Store.Type = v
	}
	if v := os.Getenv("SQLITE_DB_PATH"); v != "" {
		config.Store.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Store.RedisAddr = v
	}
	if v := os.Getenv("AUTO_LOCK_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AUTO_LOCK_AFTER %q: %w", v, err)
		}
		config.AutoLockAfter = d
	}
	return nil
}

func (c *ServiceConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.DocumentsDir == "" {
		return fmt.Errorf("documentsDir cannot be empty")
	}
	if c.AutoLockAfter < 0 {
		return fmt.Errorf("autoLockAfter cannot be negative")
	}

	switch c.Store.Type {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlitePath cannot be empty")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redisAddr cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpegQuality must be between 1 and 100, got %d", c.Image.JPEGQuality)
	}
	if c.Image.ThumbnailSize <= 0 {
		return fmt.Errorf("image.thumbnailSize must be positive, got %d", c.Image.ThumbnailSize)
	}
	return nil
}
