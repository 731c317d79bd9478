// Package config resolves netgeo settings from flags, environment variables
// and the YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/netgeo/internal/appdir"
	"github.com/tbckr/netgeo/internal/cache"
	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/output"
)

// EnvPrefix is prepended to every environment variable override, e.g. NETGEO_SERVER_URL.
const EnvPrefix = "NETGEO"

// Defaults for settings that are not plain zero values.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultCacheFile    = "netgeo.cache"
	DefaultCacheTTL     = 30 * 24 * time.Hour
	DefaultBatchLimit   = 100
	DefaultConcurrency  = 5
	DefaultRateLimit    = 2.0
	DefaultOutputFormat = string(output.FormatTable)
)

// ErrUnknownKey is returned for config keys netgeo does not know about.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the fully-resolved settings for one invocation.
type Config struct {
	ConfigFile   string
	ServerURL    string
	Timeout      time.Duration
	CacheDir     string
	CacheFile    string
	CacheBackend string
	CacheTTL     time.Duration
	BatchLimit   int
	Concurrency  int
	RateLimit    float64
	AppName      string
	Proxy        string
	Output       string
	Verbose      bool
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
)

// keySpec describes one persisted setting and the flag that overrides it.
type keySpec struct {
	key   string
	short string
	kind  kind
	usage string
	enum  []string

	// minValue is the smallest accepted value for numeric and duration keys.
	minValue float64
}

var keys = []keySpec{
	{key: "server_url", kind: kindString, usage: "NetGeo server endpoint"},
	{key: "timeout", kind: kindDuration, minValue: 1, usage: "per-request timeout"},
	{key: "cache_dir", kind: kindString, usage: "directory holding the lookup cache (default: OS cache dir)"},
	{key: "cache_file", kind: kindString, usage: "lookup cache file name"},
	{key: "cache_backend", kind: kindString, enum: cache.BackendKinds(), usage: "lookup cache storage: file or sqlite"},
	{key: "cache_ttl", kind: kindDuration, usage: "how long cached lookups stay fresh (0 = forever)"},
	{key: "batch_limit", kind: kindInt, minValue: 1, usage: "maximum number of targets per lookup"},
	{key: "concurrency", short: "c", kind: kindInt, minValue: 1, usage: "number of parallel lookups"},
	{key: "rate_limit", kind: kindFloat, usage: "maximum requests per second to the server (0 = unlimited)"},
	{key: "app_name", kind: kindString, usage: "application name sent in the User-Agent"},
	{key: "proxy", kind: kindString, usage: "proxy URL (http, https or socks5)"},
	{key: "output", short: "o", kind: kindString, enum: output.Formats(), usage: "output format: table, json or text"},
	{key: "verbose", short: "v", kind: kindBool, usage: "enable debug logging"},
}

func lookupKey(key string) (keySpec, bool) {
	for _, k := range keys {
		if k.key == key {
			return k, true
		}
	}
	return keySpec{}, false
}

// flagName maps a config key to its flag, e.g. cache_dir → cache-dir.
func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// NormalizeKey converts hyphenated flag names to config keys, e.g. cache-dir → cache_dir.
func NormalizeKey(key string) string { return strings.ReplaceAll(key, "-", "_") }

// ValidKeys returns every config key in declaration order.
func ValidKeys() []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}

// ValidateKey returns ErrUnknownKey unless key (or its hyphenated form) is a config key.
func ValidateKey(key string) error {
	if _, ok := lookupKey(NormalizeKey(key)); !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return nil
}

// KeyCompletions returns the accepted values for enumerated and boolean keys.
func KeyCompletions(key string) []string {
	spec, ok := lookupKey(NormalizeKey(key))
	if !ok {
		return nil
	}
	if spec.kind == kindBool {
		return []string{"true", "false"}
	}
	return spec.enum
}

// ParseValue validates value for key and converts it to the type stored in
// the config file. Durations are kept as strings so the file stays readable.
func ParseValue(key, value string) (any, error) {
	spec, ok := lookupKey(NormalizeKey(key))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a boolean (use true or false)", spec.key, value)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", spec.key, value)
		}
		if float64(n) < spec.minValue {
			return nil, fmt.Errorf("%s: must be at least %v, got %d", spec.key, spec.minValue, n)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", spec.key, value)
		}
		if f < spec.minValue {
			return nil, fmt.Errorf("%s: must be at least %v, got %v", spec.key, spec.minValue, f)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a duration (e.g. 30s, 12h)", spec.key, value)
		}
		if d < 0 || (spec.minValue > 0 && d == 0) {
			return nil, fmt.Errorf("%s: %s is out of range", spec.key, value)
		}
		return value, nil
	default:
		if len(spec.enum) > 0 && !slices.Contains(spec.enum, value) {
			return nil, fmt.Errorf("%s: %q is not one of %s", spec.key, value, strings.Join(spec.enum, ", "))
		}
		return value, nil
	}
}

// RegisterFlags adds --config and one flag per config key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: OS config dir/netgeo/config.yaml)")
	for _, k := range keys {
		name := flagName(k.key)
		switch k.key {
		case "server_url":
			fs.String(name, netgeo.DefaultServerURL, k.usage)
		case "timeout":
			fs.Duration(name, DefaultTimeout, k.usage)
		case "cache_file":
			fs.String(name, DefaultCacheFile, k.usage)
		case "cache_backend":
			fs.String(name, cache.BackendFile, k.usage)
		case "cache_ttl":
			fs.Duration(name, DefaultCacheTTL, k.usage)
		case "batch_limit":
			fs.Int(name, DefaultBatchLimit, k.usage)
		case "concurrency":
			fs.IntP(name, k.short, DefaultConcurrency, k.usage)
		case "rate_limit":
			fs.Float64(name, DefaultRateLimit, k.usage)
		case "output":
			fs.StringP(name, k.short, DefaultOutputFormat, k.usage)
		case "verbose":
			fs.BoolP(name, k.short, false, k.usage)
		default:
			fs.String(name, "", k.usage)
		}
	}
}

// DefaultConfigPath returns the OS-appropriate config file path.
func DefaultConfigPath() (string, error) {
	dir, err := appdir.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultCacheDir returns the OS-appropriate cache directory.
func DefaultCacheDir() (string, error) { return appdir.CacheDir() }

// Load resolves the configuration from fs (registered with RegisterFlags),
// NETGEO_* environment variables and the config file. The config file is
// created with 0600 permissions when missing.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfgFile, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		if cfgFile, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindPFlag(k.key, fs.Lookup(flagName(k.key))); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flagName(k.key), err)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}

	cfg := &Config{
		ConfigFile:   cfgFile,
		ServerURL:    v.GetString("server_url"),
		Timeout:      v.GetDuration("timeout"),
		CacheDir:     v.GetString("cache_dir"),
		CacheFile:    v.GetString("cache_file"),
		CacheBackend: v.GetString("cache_backend"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		BatchLimit:   v.GetInt("batch_limit"),
		Concurrency:  v.GetInt("concurrency"),
		RateLimit:    v.GetFloat64("rate_limit"),
		AppName:      v.GetString("app_name"),
		Proxy:        v.GetString("proxy"),
		Output:       v.GetString("output"),
		Verbose:      v.GetBool("verbose"),
	}
	if cfg.CacheDir == "" {
		if cfg.CacheDir, err = DefaultCacheDir(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that flags and viper cannot express.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Output); err != nil {
		return err
	}
	if !slices.Contains(cache.BackendKinds(), c.CacheBackend) {
		return fmt.Errorf("invalid cache backend %q: must be one of %s", c.CacheBackend, strings.Join(cache.BackendKinds(), ", "))
	}
	if c.CacheFile == "" {
		return errors.New("cache file name must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.BatchLimit < 1 {
		return fmt.Errorf("batch limit must be at least 1, got %d", c.BatchLimit)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// Value returns the effective value of key formatted for display.
func (c *Config) Value(key string) (string, error) {
	switch NormalizeKey(key) {
	case "server_url":
		return c.ServerURL, nil
	case "timeout":
		return c.Timeout.String(), nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_file":
		return c.CacheFile, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "cache_ttl":
		return c.CacheTTL.String(), nil
	case "batch_limit":
		return strconv.Itoa(c.BatchLimit), nil
	case "concurrency":
		return strconv.Itoa(c.Concurrency), nil
	case "rate_limit":
		return strconv.FormatFloat(c.RateLimit, 'f', -1, 64), nil
	case "app_name":
		return c.AppName, nil
	case "proxy":
		return c.Proxy, nil
	case "output":
		return c.Output, nil
	case "verbose":
		return strconv.FormatBool(c.Verbose), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}
