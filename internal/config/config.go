package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort       = 3000
	DefaultBackendURL = "http://localhost:8000"
	DefaultPageSize   = 10
	DefaultSessionAge = 24 * time.Hour
)

type Config struct {
	Server struct {
		Port         int      `yaml:"port"`
		CookieSecure bool     `yaml:"cookieSecure"`
		CORSOrigins  []string `yaml:"corsOrigins"`
		// SessionMaxAge bounds in-memory sessions; backend tokens expire well before.
		SessionMaxAge time.Duration `yaml:"sessionMaxAge"`
		// RateLimit applies to login and scan submission (requests per minute, burst).
		RateLimit struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Backend struct {
		BaseURL  string `yaml:"baseURL"`
		PageSize int    `yaml:"pageSize"`
	} `yaml:"backend"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json | logfmt
	} `yaml:"log"`

	Sessions struct {
		Driver   string `yaml:"driver"` // memory | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"sessions"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		Prefix     string        `yaml:"prefix"`
		LinkExpiry time.Duration `yaml:"linkExpiry"`
	} `yaml:"minio"`
}

// Load baca .env lalu file config.yaml; file yang tidak ada tidak dianggap error.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	// NEXT_PUBLIC_API_URL kept for deployments migrated from the old frontend
	if v := os.Getenv("NEXT_PUBLIC_API_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("WEBINTEL_API_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := getInt("PORT", 0); v > 0 {
		c.Server.Port = v
	}
	if v := os.Getenv("WEBINTEL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WEBINTEL_SESSION_DRIVER"); v != "" {
		c.Sessions.Driver = v
	}
	if v := os.Getenv("WEBINTEL_SESSION_PASSWORD"); v != "" {
		c.Sessions.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SessionMaxAge <= 0 {
		c.Server.SessionMaxAge = DefaultSessionAge
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 20
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBackendURL
	}
	if c.Backend.PageSize <= 0 {
		c.Backend.PageSize = DefaultPageSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = "memory"
	}
}

// Validate checks combinations the loader cannot default.
func (c *Config) Validate() error {
	switch c.Sessions.Driver {
	case "memory":
	case "mysql", "postgres":
		if c.Sessions.Host == "" || c.Sessions.Name == "" {
			return fmt.Errorf("sessions.host and sessions.name are required for driver %q", c.Sessions.Driver)
		}
	default:
		return fmt.Errorf("unknown sessions.driver %q (allowed: memory, mysql, postgres)", c.Sessions.Driver)
	}
	if c.Backend.PageSize > 100 {
		return fmt.Errorf("backend.pageSize %d exceeds backend limit of 100", c.Backend.PageSize)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return errors.New("minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Sessions.User,
		c.Sessions.Password,
		c.Sessions.Host,
		c.sessionPort(3306),
		c.Sessions.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	ssl := c.Sessions.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Sessions.Host,
		c.sessionPort(5432),
		c.Sessions.User,
		c.Sessions.Password,
		c.Sessions.Name,
		ssl,
	)
}

func (c *Config) sessionPort(def int) int {
	if c.Sessions.Port == 0 {
		return def
	}
	return c.Sessions.Port
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
