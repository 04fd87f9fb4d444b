package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-g", ":9091", "-m", "production", "-s", "secret",
				"-t", "30", "-p", "salt", "-l", "anthropic", "-b", "sqlite", "-d", "/var/lib/medchat",
			},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:9090",
				GRPCHealthAddr: ":9091",
				Environment:    "production",
				SecretKey:      "secret",
				TokenTTL:       30 * time.Minute,
				PasswordSalt:   "salt",
				LLMProvider:    "anthropic",
				StorageBackend: "sqlite",
				DataDir:        "/var/lib/medchat",
			},
		},
		{
			name: "config flag ignored",
			args: []string{"cmd", "-c", "cfg.json", "-a", ":1"},
			expected: &Config{
				HTTPAddr: ":1",
			},
		},
		{
			name:        "bad minutes",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLWithoutFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-a", ":1"}

	config := &Config{TokenTTL: 90 * time.Second}
	parseFlags(config)
	assert.Equal(t, 90*time.Second, config.TokenTTL)
}
