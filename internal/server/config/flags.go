package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/medchat/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address; empty disables the probe
//	-m string   environment ("development", "production")
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-p string   password hashing salt
//	-l string   LLM provider (gemini, openai, anthropic, mock)
//	-b string   storage backend (file, sqlite, postgres, s3, redis)
//	-d string   data directory for file and sqlite backends
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config stay with the JSON loader.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-m", "-s", "-t", "-p", "-l", "-b", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port for the gRPC health probe")
	fs.StringVar(&config.Environment, "m", config.Environment, "environment")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.PasswordSalt, "p", config.PasswordSalt, "password salt")
	fs.StringVar(&config.LLMProvider, "l", config.LLMProvider, "LLM provider")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only an explicit -t overrides, so sub-minute JSON values survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
		}
	})
}
