package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"stockreporter/internal/limits"
	"stockreporter/internal/provider/yql"
)

type Quotes struct {
	Endpoint   string   `json:"endpoint"`
	Query      string   `json:"query"`
	Fields     []string `json:"fields"`
	TimeoutSec int      `json:"timeout_sec"`
	UserAgent  string   `json:"user_agent"`
}

type Limits struct {
	// File is used when no path is given on the command line. A relative
	// name is resolved next to the executable.
	File string `json:"file"`
}

type Server struct {
	Port                 string `json:"port"`
	RequestTimeoutSec    int    `json:"request_timeout_sec"`
	MaxConcurrentReports int    `json:"max_concurrent_reports"`
	UpstreamMaxRPM       int    `json:"upstream_max_requests_per_minute"`
	UpstreamBurst        int    `json:"upstream_burst"`
	UpstreamMinInterval  int    `json:"upstream_min_interval_sec"`
}

type Logging struct {
	Level         string `json:"level"`
	Format        string `json:"format"`
	FileEnabled   bool   `json:"file_enabled"`
	FilePath      string `json:"file_path"`
	RotationSize  int    `json:"rotation_size_mb"`
	RetentionDays int    `json:"retention_days"`
}

type Config struct {
	Quotes  Quotes  `json:"quotes"`
	Limits  Limits  `json:"limits"`
	Server  Server  `json:"server"`
	Logging Logging `json:"logging"`
}

func Default() Config {
	return Config{
		Quotes: Quotes{
			Endpoint:   yql.DefaultEndpoint,
			Query:      yql.DefaultQuery,
			Fields:     append([]string(nil), yql.DefaultFields...),
			TimeoutSec: 30,
			UserAgent:  "stockreporter/1.0",
		},
		Limits: Limits{File: limits.DefaultFile},
		Server: Server{
			Port:                 "8080",
			RequestTimeoutSec:    30,
			MaxConcurrentReports: 4,
			UpstreamMaxRPM:       60,
			UpstreamBurst:        5,
		},
		Logging: Logging{
			Level:         "info",
			Format:        "pretty",
			FilePath:      "logs",
			RotationSize:  10,
			RetentionDays: 7,
		},
	}
}

// Load reads JSON config from path. If path is empty, config.json in the
// working directory is used when present; a missing file yields defaults.
// Variables from .env and the environment override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if !strings.Contains(cfg.Quotes.Endpoint, "{query}") {
		return cfg, fmt.Errorf("quotes.endpoint %q has no {query} placeholder", cfg.Quotes.Endpoint)
	}
	for _, want := range yql.DefaultFields {
		if !slices.ContainsFunc(cfg.Quotes.Fields, func(f string) bool { return strings.EqualFold(f, want) }) {
			return cfg, fmt.Errorf("quotes.fields %v must include %q", cfg.Quotes.Fields, want)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOCKREPORT_ENDPOINT"); v != "" {
		cfg.Quotes.Endpoint = v
	}
	if v := os.Getenv("STOCKREPORT_QUERY"); v != "" {
		cfg.Quotes.Query = v
	}
	if v := os.Getenv("STOCKREPORT_FIELDS"); v != "" {
		cfg.Quotes.Fields = splitCSV(v)
	}
	if v := os.Getenv("STOCKREPORT_LIMITS_FILE"); v != "" {
		cfg.Limits.File = v
	}
	if x, ok := envInt("QUOTES_TIMEOUT_SEC"); ok && x >= 0 {
		cfg.Quotes.TimeoutSec = x
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if x, ok := envInt("MAX_CONCURRENT_REPORTS"); ok && x > 0 {
		cfg.Server.MaxConcurrentReports = x
	}
	if x, ok := envInt("UPSTREAM_MAX_RPM"); ok && x >= 0 {
		cfg.Server.UpstreamMaxRPM = x
	}
	if x, ok := envInt("UPSTREAM_BURST"); ok && x > 0 {
		cfg.Server.UpstreamBurst = x
	}
	if x, ok := envInt("UPSTREAM_MIN_INTERVAL_SEC"); ok && x >= 0 {
		cfg.Server.UpstreamMinInterval = x
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := envBool("LOG_FILE_ENABLED"); ok {
		cfg.Logging.FileEnabled = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.Logging.FilePath = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return 0, false
	}
	return x, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
