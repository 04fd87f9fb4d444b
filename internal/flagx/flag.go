// Package flagx contains helpers for layered configuration: selecting the
// subset of command-line arguments a component owns, locating the JSON
// config file, and overlaying environment variables.
package flagx

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that is not itself a flag is this flag's value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags extracts the config file path given via -c or -config in
// os.Args. It returns "" when neither flag is present.
func JsonConfigFlags() string {
	return JsonConfigPath(os.Args[1:])
}

// JsonConfigPath is JsonConfigFlags over an explicit argument list.
// Other arguments are ignored so callers can still parse their own flags.
func JsonConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

// LookupFunc matches os.LookupEnv; tests pass a map-backed stub.
type LookupFunc func(key string) (string, bool)

// EnvString overwrites *dst with the first non-empty variable among keys.
func EnvString(lookup LookupFunc, dst *string, keys ...string) {
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			*dst = v
			return
		}
	}
}

// EnvInt overwrites *dst when key holds a valid integer.
func EnvInt(lookup LookupFunc, dst *int, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &EnvError{Key: key, Value: v, Err: err}
	}
	*dst = n
	return nil
}

// EnvMinutes overwrites *dst when key holds a whole number of minutes.
func EnvMinutes(lookup LookupFunc, dst *time.Duration, key string) error {
	n := -1
	if err := EnvInt(lookup, &n, key); err != nil {
		return err
	}
	if n >= 0 {
		*dst = time.Duration(n) * time.Minute
	}
	return nil
}

// EnvDuration overwrites *dst when key holds a time.ParseDuration string.
func EnvDuration(lookup LookupFunc, dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return &EnvError{Key: key, Value: v, Err: err}
	}
	*dst = d
	return nil
}

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return "env " + e.Key + "=" + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *EnvError) Unwrap() error { return e.Err }
