/*
config.go - Process configuration

PURPOSE:
  Reads the service configuration from the environment. A .env file in the
  working directory is loaded first when present; real environment
  variables win over it. Command-line flags in cmd/server override both.

VARIABLES:
  PORT             HTTP port                          (8080)
  DB_PATH          SQLite path, ":memory:" allowed    (attendance.db)
  LOG_LEVEL        logrus level                       (info)
  LOG_FORMAT       json | text                        (json)
  WEEK_START       first day of a report week         (monday)
  MAX_UPLOAD_MB    upload size limit                  (10)
  IMPORT_INBOX     directory polled for punch files   (empty = disabled)
  IMPORT_INTERVAL  poll interval                      (1m)
  CORS_ORIGINS     comma-separated allowed origins    (*)

SEE ALSO:
  - logger.go: NewLogger
  - cmd/server/main.go: flag overrides
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/attendance-engine/attendance"
)

// Config is the resolved process configuration.
type Config struct {
	Port           int
	DBPath         string
	LogLevel       string
	LogFormat      string
	WeekStart      time.Weekday
	MaxUploadMB    int
	ImportInbox    string
	ImportInterval time.Duration
	CORSOrigins    []string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           8080,
		DBPath:         "attendance.db",
		LogLevel:       "info",
		LogFormat:      "json",
		WeekStart:      time.Monday,
		MaxUploadMB:    10,
		ImportInterval: time.Minute,
		CORSOrigins:    []string{"*"},
	}
}

// Load reads .env (if any) and the environment on top of Default.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves configuration through lookup, which has the signature
// of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("PORT: invalid value %q", v)
		}
		cfg.Port = port
	}
	if v, ok := get("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := get("WEEK_START"); ok {
		wd, err := attendance.ParseWeekday(v)
		if err != nil {
			return cfg, fmt.Errorf("WEEK_START: %w", err)
		}
		cfg.WeekStart = wd
	}
	if v, ok := get("MAX_UPLOAD_MB"); ok {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return cfg, fmt.Errorf("MAX_UPLOAD_MB: invalid value %q", v)
		}
		cfg.MaxUploadMB = mb
	}
	if v, ok := get("IMPORT_INBOX"); ok {
		cfg.ImportInbox = v
	}
	if v, ok := get("IMPORT_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("IMPORT_INTERVAL: invalid value %q", v)
		}
		cfg.ImportInterval = d
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	return cfg, nil
}

// Calendar returns the report week calendar.
func (c Config) Calendar() attendance.WeekCalendar {
	return attendance.WeekCalendar{Start: c.WeekStart}
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
