package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/medchat/internal/flagx"
	"github.com/dmitrijs2005/medchat/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Every field is
// optional: absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	GRPCHealthAddr *string         `json:"grpc_health_addr"`
	Environment    *string         `json:"environment"`
	SecretKey      *string         `json:"secret_key"`
	TokenTTL       *timex.Duration `json:"access_token_ttl"`
	PasswordSalt   *string         `json:"password_salt"`
	LLMProvider    *string         `json:"llm_provider"`
	LLMAPIKey      *string         `json:"llm_api_key"`
	LLMModel       *string         `json:"llm_model"`
	LLMBaseURL     *string         `json:"llm_base_url"`
	LLMTimeout     *timex.Duration `json:"llm_timeout"`
	StorageBackend *string         `json:"storage_backend"`
	DataDir        *string         `json:"data_dir"`
	DatabaseDSN    *string         `json:"database_dsn"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	S3AccessKey    *string         `json:"s3_access_key"`
	S3SecretKey    *string         `json:"s3_secret_key"`
	RedisAddr      *string         `json:"redis_addr"`
	RedisPassword  *string         `json:"redis_password"`
	RedisDB        *int            `json:"redis_db"`
}

// parseJson overlays values from the file named by -c/-config, if any.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.Environment, c.Environment)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	setString(&config.PasswordSalt, c.PasswordSalt)
	setString(&config.LLMProvider, c.LLMProvider)
	setString(&config.LLMAPIKey, c.LLMAPIKey)
	setString(&config.LLMModel, c.LLMModel)
	setString(&config.LLMBaseURL, c.LLMBaseURL)
	if c.LLMTimeout != nil {
		config.LLMTimeout = c.LLMTimeout.Duration
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DataDir, c.DataDir)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
