package config

import "github.com/dmitrijs2005/medchat/internal/flagx"

// parseEnv overlays values from environment variables. GEMINI_API_KEY is
// honoured as a fallback for LLM_API_KEY.
func parseEnv(config *Config, lookup flagx.LookupFunc) error {
	flagx.EnvString(lookup, &config.HTTPAddr, "HTTP_ADDR")
	flagx.EnvString(lookup, &config.GRPCHealthAddr, "GRPC_HEALTH_ADDR")
	flagx.EnvString(lookup, &config.Environment, "APP_ENV")
	flagx.EnvString(lookup, &config.SecretKey, "SECRET_KEY")
	flagx.EnvString(lookup, &config.PasswordSalt, "PASSWORD_SALT")
	flagx.EnvString(lookup, &config.LLMProvider, "LLM_PROVIDER")
	flagx.EnvString(lookup, &config.LLMAPIKey, "LLM_API_KEY", "GEMINI_API_KEY")
	flagx.EnvString(lookup, &config.LLMModel, "LLM_MODEL")
	flagx.EnvString(lookup, &config.LLMBaseURL, "LLM_BASE_URL")
	flagx.EnvString(lookup, &config.StorageBackend, "STORAGE_BACKEND")
	flagx.EnvString(lookup, &config.DataDir, "DATA_DIR")
	flagx.EnvString(lookup, &config.DatabaseDSN, "DATABASE_DSN")
	flagx.EnvString(lookup, &config.S3Bucket, "S3_BUCKET")
	flagx.EnvString(lookup, &config.S3Region, "S3_REGION")
	flagx.EnvString(lookup, &config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	flagx.EnvString(lookup, &config.S3AccessKey, "S3_ACCESS_KEY")
	flagx.EnvString(lookup, &config.S3SecretKey, "S3_SECRET_KEY")
	flagx.EnvString(lookup, &config.RedisAddr, "REDIS_ADDR")
	flagx.EnvString(lookup, &config.RedisPassword, "REDIS_PASSWORD")

	if err := flagx.EnvMinutes(lookup, &config.TokenTTL, "ACCESS_TOKEN_EXPIRE_MINUTES"); err != nil {
		return err
	}
	if err := flagx.EnvDuration(lookup, &config.LLMTimeout, "LLM_TIMEOUT"); err != nil {
		return err
	}
	return flagx.EnvInt(lookup, &config.RedisDB, "REDIS_DB")
}
