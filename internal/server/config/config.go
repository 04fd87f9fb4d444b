// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and
// command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
)

// Development defaults. Validate refuses them when Environment is production.
const (
	DefaultSecretKey    = "medchat-dev-secret-key-change-me"
	DefaultPasswordSalt = "medchat-dev-salt-change-me"
)

// Storage backends accepted by StorageBackend.
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageS3       = "s3"
	StorageRedis    = "redis"
)

// Config holds runtime settings for the medchat server.
//
// Fields:
//   - HTTPAddr: bind address for the REST API.
//   - GRPCHealthAddr: bind address for the gRPC health probe; empty disables it.
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - TokenTTL: access token lifetime.
//   - PasswordSalt: fixed salt mixed into every password hash.
//   - LLM*: model provider selection and credentials.
//   - StorageBackend and the backend-specific settings below it.
type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string
	Environment    string

	SecretKey    string
	TokenTTL     time.Duration
	PasswordSalt string

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	StorageBackend string
	DataDir        string
	DatabaseDSN    string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and PasswordSalt are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.GRPCHealthAddr = ""
	c.Environment = "development"
	c.SecretKey = DefaultSecretKey
	c.TokenTTL = 720 * time.Minute
	c.PasswordSalt = DefaultPasswordSalt
	c.LLMProvider = "gemini"
	c.LLMTimeout = 60 * time.Second
	c.StorageBackend = StorageFile
	c.DataDir = "data"
	c.S3Bucket = "medchat"
	c.S3Region = "us-east-1"
	c.RedisAddr = "127.0.0.1:6379"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		panic(err)
	}
	parseFlags(cfg)
	return cfg
}

// IsProduction reports whether the server runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// InsecureDefaults lists the settings still carrying development defaults.
func (c *Config) InsecureDefaults() []string {
	var out []string
	if c.SecretKey == DefaultSecretKey {
		out = append(out, "secret_key")
	}
	if c.PasswordSalt == DefaultPasswordSalt {
		out = append(out, "password_salt")
	}
	return out
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret_key must not be empty", common.ErrorValidation)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: access token ttl must be positive", common.ErrorValidation)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive", common.ErrorValidation)
	}
	switch c.StorageBackend {
	case StorageFile, StorageSQLite, StorageS3, StorageRedis:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: database_dsn is required for the postgres backend", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrorValidation, c.StorageBackend)
	}
	if c.IsProduction() {
		if insecure := c.InsecureDefaults(); len(insecure) > 0 {
			return fmt.Errorf("%w: %v", common.ErrInsecureDefaultConf, insecure)
		}
	}
	return nil
}
