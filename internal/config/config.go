// Package config loads the cdrguard server configuration.
// It uses koanf to merge an optional YAML file with CDRGUARD_* environment
// overrides.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/pkg/generator"
)

// Config holds all configuration values.
type Config struct {
	ServerAddr string

	LogLevel        string
	LogReportCaller bool

	// GeoIPCountryDB is optional; enrichment is skipped when empty.
	GeoIPCountryDB string

	BonusEnabled bool
	BonusSeed    int64

	GeneratorSeed int64

	// GeneratorMaxUsers caps the population accepted by the generate endpoint.
	GeneratorMaxUsers int
}

// Configuration validation errors.
var (
	ErrMissingServerAddr = errors.New("server.addr is required")
	ErrInvalidLogLevel   = errors.New("log.level must be one of trace, debug, info, warn, error, fatal, panic")
	ErrInvalidMaxUsers   = errors.New("generator.max_users is out of range")
	ErrInvalidInteger    = errors.New("must be a valid integer")
	ErrInvalidBool       = errors.New("must be a valid boolean")
)

// Default values.
const (
	DefaultServerAddr    = ":8080"
	DefaultLogLevel      = "info"
	DefaultGeneratorSeed = 42
	DefaultMaxUsers      = 1000
)

// EnvPrefix prefixes every environment override, e.g. CDRGUARD_LOG_LEVEL.
const EnvPrefix = "CDRGUARD_"

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables take precedence over file values, file values over
// defaults. Returns the config and every validation error found.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{errors.Wrapf(err, "load config file %s", path)}
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		ServerAddr:     stringValue(k, "server.addr", DefaultServerAddr),
		LogLevel:       strings.ToLower(stringValue(k, "log.level", DefaultLogLevel)),
		GeoIPCountryDB: stringValue(k, "geoip.country_db", ""),
	}

	var err error
	cfg.LogReportCaller, err = boolValue(k, "log.report_caller", false)
	collect(err)
	cfg.BonusEnabled, err = boolValue(k, "engine.bonus_enabled", false)
	collect(err)

	seed, err := intValue(k, "engine.bonus_seed", 0)
	collect(err)
	cfg.BonusSeed = int64(seed)

	seed, err = intValue(k, "generator.seed", DefaultGeneratorSeed)
	collect(err)
	cfg.GeneratorSeed = int64(seed)

	cfg.GeneratorMaxUsers, err = intValue(k, "generator.max_users", DefaultMaxUsers)
	collect(err)

	return cfg, append(errs, cfg.Validate()...)
}

// Validate checks value ranges. Returns an empty slice when valid.
func (c *Config) Validate() []error {
	var errs []error
	if c.ServerAddr == "" {
		errs = append(errs, ErrMissingServerAddr)
	}
	if !govalidator.IsIn(c.LogLevel, logLevels...) {
		errs = append(errs, errors.Wrapf(ErrInvalidLogLevel, "got %q", c.LogLevel))
	}
	if !govalidator.InRangeInt(c.GeneratorMaxUsers, generator.MinUsers, generator.MaxUsers) {
		errs = append(errs, errors.Wrapf(ErrInvalidMaxUsers, "got %d, want %d..%d",
			c.GeneratorMaxUsers, generator.MinUsers, generator.MaxUsers))
	}
	return errs
}

// LogSummary returns the configuration as loggable key/value pairs.
func (c *Config) LogSummary() map[string]string {
	geo := c.GeoIPCountryDB
	if geo == "" {
		geo = "<not set>"
	}
	return map[string]string{
		"server.addr":          c.ServerAddr,
		"log.level":            c.LogLevel,
		"log.report_caller":    strconv.FormatBool(c.LogReportCaller),
		"geoip.country_db":     geo,
		"engine.bonus_enabled": strconv.FormatBool(c.BonusEnabled),
		"engine.bonus_seed":    strconv.FormatInt(c.BonusSeed, 10),
		"generator.seed":       strconv.FormatInt(c.GeneratorSeed, 10),
		"generator.max_users":  strconv.Itoa(c.GeneratorMaxUsers),
	}
}

// EnvKey maps a koanf key to its environment variable, e.g. log.level to
// CDRGUARD_LOG_LEVEL.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func stringValue(k *koanf.Koanf, key, def string) string {
	if v := os.Getenv(EnvKey(key)); v != "" {
		return v
	}
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func intValue(k *koanf.Koanf, key string, def int) (int, error) {
	if v := os.Getenv(EnvKey(key)); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return def, errors.Wrapf(ErrInvalidInteger, "%s=%q", EnvKey(key), v)
		}
		return i, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

func boolValue(k *koanf.Koanf, key string, def bool) (bool, error) {
	if v := os.Getenv(EnvKey(key)); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return def, errors.Wrapf(ErrInvalidBool, "%s=%q", EnvKey(key), v)
	}
	if k.Exists(key) {
		return k.Bool(key), nil
	}
	return def, nil
}
