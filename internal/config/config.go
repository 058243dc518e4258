package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Deception backends
const (
	BackendNone   = "none"
	BackendOpenAI = "openai"
	BackendGRPC   = "grpc"
)

type Config struct {
	Server struct {
		Port            int               `yaml:"port"`
		ReadTimeout     time.Duration     `yaml:"readTimeout"`
		WriteTimeout    time.Duration     `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration     `yaml:"shutdownTimeout"`
		CORSOrigins     []string          `yaml:"corsOrigins"`
		APIKeys         map[string]string `yaml:"apiKeys"` // principal -> key; empty disables auth
		RateLimit       struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	Database struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"` // overrides the fields below when set
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	History struct {
		FailOnError bool `yaml:"failOnError"`
	} `yaml:"history"`

	Redis struct {
		Addr     string        `yaml:"addr"` // empty disables the cache
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Deception struct {
		Backend string        `yaml:"backend"`
		Timeout time.Duration `yaml:"timeout"`
		OpenAI  struct {
			APIKey  string `yaml:"apiKey"`
			Model   string `yaml:"model"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		GRPC struct {
			Addr string `yaml:"addr"`
		} `yaml:"grpc"`
	} `yaml:"deception"`

	Personality struct {
		Concurrency int           `yaml:"concurrency"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxLength   int           `yaml:"maxLength"`
		ModelPath   string        `yaml:"modelPath"`
		VocabPath   string        `yaml:"vocabPath"`
		ModelKey    string        `yaml:"modelKey"` // MinIO object keys
		VocabKey    string        `yaml:"vocabKey"`
		CacheDir    string        `yaml:"cacheDir"`
		GRPCAddr    string        `yaml:"grpcAddr"` // remote inference instead of local weights
	} `yaml:"personality"`
}

// Default returns a config usable for a local run: SQLite, no cache, heuristic personality.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 60
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "persona.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Deception.Backend == "" {
		c.Deception.Backend = BackendNone
	}
	if c.Deception.Timeout == 0 {
		c.Deception.Timeout = 10 * time.Second
	}
	if c.Deception.OpenAI.Model == "" {
		c.Deception.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Personality.Concurrency == 0 {
		c.Personality.Concurrency = 4
	}
	if c.Personality.Timeout == 0 {
		c.Personality.Timeout = 2 * time.Second
	}
	if c.Personality.MaxLength == 0 {
		c.Personality.MaxLength = 100
	}
	if c.Personality.CacheDir == "" {
		c.Personality.CacheDir = os.TempDir()
	}
}

// Load baca file config.yaml, isi default, lalu override dari env.
// A missing file is not an error; defaults and env are used instead.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Deception.OpenAI.APIKey = key
		if c.Deception.Backend == BackendNone {
			c.Deception.Backend = BackendOpenAI
		}
	}
	if v := os.Getenv("DECEPTION_BACKEND"); v != "" {
		c.Deception.Backend = v
	}
	if v := os.Getenv("INFERENCE_ADDR"); v != "" {
		c.Deception.GRPC.Addr = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q not supported", c.Database.Driver))
	}
	switch c.Deception.Backend {
	case BackendNone:
	case BackendOpenAI:
		if c.Deception.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("deception.openai.apiKey is required for the openai backend"))
		}
	case BackendGRPC:
		if c.Deception.GRPC.Addr == "" {
			errs = append(errs, errors.New("deception.grpc.addr is required for the grpc backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("deception.backend %q not supported", c.Deception.Backend))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Personality.Concurrency < 0 {
		errs = append(errs, errors.New("personality.concurrency must not be negative"))
	}
	if (c.Personality.ModelKey != "" || c.Personality.VocabKey != "") && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("personality model keys need minio.endpoint"))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if strings.TrimSpace(c.Database.DSN) != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case DriverMySQL:
		return c.MySQLDSN()
	case DriverPostgres:
		return c.PostgresDSN()
	default:
		return c.Database.Path
	}
}
