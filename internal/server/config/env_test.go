package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, envLookup(map[string]string{
		"HTTP_ADDR":                   ":9000",
		"APP_ENV":                     "production",
		"SECRET_KEY":                  "env-secret",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "15",
		"GEMINI_API_KEY":              "g-key",
		"LLM_TIMEOUT":                 "20s",
		"STORAGE_BACKEND":             "s3",
		"S3_BUCKET":                   "chats",
		"REDIS_DB":                    "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "g-key", cfg.LLMAPIKey)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "chats", cfg.S3Bucket)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, "gemini", cfg.LLMProvider, "unset variables keep their value")
}

func TestParseEnv_LLMKeyPreferredOverGeminiKey(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.NoError(t, parseEnv(cfg, envLookup(map[string]string{
		"LLM_API_KEY":    "primary",
		"GEMINI_API_KEY": "fallback",
	})))
	assert.Equal(t, "primary", cfg.LLMAPIKey)
}

func TestParseEnv_InvalidNumber(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ACCESS_TOKEN_EXPIRE_MINUTES": "lots",
		"LLM_TIMEOUT":                 "later",
		"REDIS_DB":                    "zero",
	}
	for key, val := range tests {
		cfg := &Config{}
		err := parseEnv(cfg, envLookup(map[string]string{key: val}))
		require.Error(t, err, key)
		assert.Contains(t, err.Error(), key)
	}
}
