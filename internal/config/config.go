package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string
	TokenTTL   time.Duration

	ExamMaxQuestions int
	ExamMaxDuration  time.Duration
	ExamTimezone     string

	LogFormat string // text|json
	LogLevel  string

	RequestTimeout time.Duration
	EnableMetrics  bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", "file:exams.db"),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		TokenTTL:   envDuration("TOKEN_TTL", 8*time.Hour),

		ExamMaxQuestions: envInt("EXAM_MAX_QUESTIONS", 25),
		ExamMaxDuration:  envDuration("EXAM_MAX_DURATION", 2*time.Hour),
		ExamTimezone:     envOr("EXAM_TIMEZONE", "Local"),

		LogFormat: envOr("LOG_FORMAT", defaultLogFormat(mode)),
		LogLevel:  envOr("LOG_LEVEL", "info"),

		RequestTimeout: envDuration("REQUEST_TIMEOUT", 15*time.Second),
		EnableMetrics:  envBool("ENABLE_METRICS", true),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://exams.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// Location resolves ExamTimezone; unknown names fall back to the host zone.
func (c Config) Location() *time.Location {
	if c.ExamTimezone == "" || c.ExamTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.ExamTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func defaultLogFormat(m Mode) string {
	if m == ModeOnline {
		return "json"
	}
	return "text"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
