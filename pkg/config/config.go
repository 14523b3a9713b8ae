// Package config loads service settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DRIVE_ROUTER_PORT.
const EnvPrefix = "DRIVE_ROUTER"

// Config holds all settings of the server.
type Config struct {
	Port           int
	AppEnv         string
	Place          string
	GraphPath      string
	OverpassURL    string
	FetchTimeout   time.Duration
	GraphTTL       time.Duration
	ArtifactDir    string
	ArtifactMaxAge time.Duration
	CORSOrigin     string
	MaxConcurrent  int
	RequestTimeout time.Duration
	FallbackSpeed  float64
	SpeedOverrides map[string]float64
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("app_env", "production")
	v.SetDefault("place", "Mönchengladbach, Germany")
	v.SetDefault("graph_path", "graph/region.graph")
	v.SetDefault("overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("fetch_timeout", 3*time.Minute)
	v.SetDefault("graph_ttl", 24*time.Hour)
	v.SetDefault("artifact_dir", "static/graph")
	v.SetDefault("artifact_max_age", time.Hour)
	v.SetDefault("cors_origin", "")
	v.SetDefault("max_concurrent", 0)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("fallback_speed_kph", 50.0)
	v.SetDefault("speed_overrides", "")
}

// Flags returns the flag set Load parses. Flag names use dashes; the
// matching keys use underscores.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("drive_router", pflag.ContinueOnError)
	flags.Int("port", 8080, "HTTP port")
	flags.String("app-env", "production", "environment (development enables console logging)")
	flags.String("place", "Mönchengladbach, Germany", "place whose road network is served")
	flags.String("graph-path", "graph/region.graph", "road network cache file")
	flags.String("overpass-url", "https://overpass-api.de/api/interpreter", "Overpass API endpoint")
	flags.Duration("fetch-timeout", 3*time.Minute, "timeout for fetching map data")
	flags.Duration("graph-ttl", 24*time.Hour, "reload the network after this long (0 = never)")
	flags.String("artifact-dir", "static/graph", "directory for rendered route maps")
	flags.Duration("artifact-max-age", time.Hour, "delete rendered maps older than this (0 = keep)")
	flags.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flags.Int("max-concurrent", 0, "max in-flight requests (0 = 2x CPUs)")
	flags.Duration("request-timeout", 60*time.Second, "per-request timeout")
	flags.Float64("fallback-speed-kph", 50, "speed for roads when no maxspeed data exists")
	flags.String("speed-overrides", "", "highway speeds in km/h, e.g. residential=30,primary=70")
	return flags
}

// Load reads .env (if present), then args, then the environment. Flags given
// explicitly win over environment variables, which win over defaults.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := Flags()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	overrides, err := ParseSpeedOverrides(v.GetString("speed_overrides"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           v.GetInt("port"),
		AppEnv:         v.GetString("app_env"),
		Place:          v.GetString("place"),
		GraphPath:      v.GetString("graph_path"),
		OverpassURL:    v.GetString("overpass_url"),
		FetchTimeout:   v.GetDuration("fetch_timeout"),
		GraphTTL:       v.GetDuration("graph_ttl"),
		ArtifactDir:    v.GetString("artifact_dir"),
		ArtifactMaxAge: v.GetDuration("artifact_max_age"),
		CORSOrigin:     v.GetString("cors_origin"),
		MaxConcurrent:  v.GetInt("max_concurrent"),
		RequestTimeout: v.GetDuration("request_timeout"),
		FallbackSpeed:  v.GetFloat64("fallback_speed_kph"),
		SpeedOverrides: overrides,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case strings.TrimSpace(c.Place) == "":
		return errors.New("place must not be empty")
	case c.GraphPath == "":
		return errors.New("graph path must not be empty")
	case c.FallbackSpeed <= 0:
		return fmt.Errorf("fallback speed must be positive, got %g", c.FallbackSpeed)
	case c.GraphTTL < 0 || c.ArtifactMaxAge < 0 || c.RequestTimeout < 0:
		return errors.New("durations must not be negative")
	}
	return nil
}

// ParseSpeedOverrides parses "highway=kph,highway=kph".
func ParseSpeedOverrides(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("speed override %q: want highway=kph", part)
		}
		var kph float64
		if _, err := fmt.Sscan(strings.TrimSpace(val), &kph); err != nil || kph <= 0 {
			return nil, fmt.Errorf("speed override %q: invalid speed", part)
		}
		out[strings.TrimSpace(k)] = kph
	}
	return out, nil
}
