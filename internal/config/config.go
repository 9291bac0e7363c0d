// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends accepted by SESSION_BACKEND.
const (
	SessionBackendMemory    = "memory"
	SessionBackendRedis     = "redis"
	SessionBackendFirestore = "firestore"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port               string
	CORSAllowedOrigins []string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	LLMReplyTimeout   time.Duration
	LLMExtractTimeout time.Duration
	LLMQueriesPerMin  int

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	FirebaseProjectID            string
	FirestoreDatabaseID          string
	GoogleApplicationCredentials string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIOBucket    string
	PublicBaseURL  string
}

// FirebaseEnabled reports whether Firebase clients should be initialized.
func (c Config) FirebaseEnabled() bool {
	return c.FirebaseProjectID != ""
}

// MinIOEnabled reports whether published sites go to object storage.
func (c Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != ""
}

// LLMEnabled reports whether an API key for the language model is configured.
func (c Config) LLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Load reads the optional .env files, then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}
	cfg := Config{
		Port:               p.str("PORT", "8080"),
		CORSAllowedOrigins: p.list("CORS_ALLOWED_ORIGINS"),

		OpenAIAPIKey:      p.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     p.str("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       p.str("OPENAI_MODEL", "gpt-4o-mini"),
		LLMReplyTimeout:   p.duration("LLM_REPLY_TIMEOUT", 20*time.Second),
		LLMExtractTimeout: p.duration("LLM_EXTRACT_TIMEOUT", 30*time.Second),
		LLMQueriesPerMin:  p.integer("LLM_QPM", 0),

		SessionBackend: strings.ToLower(p.str("SESSION_BACKEND", SessionBackendMemory)),
		SessionTTL:     p.duration("SESSION_TTL", 24*time.Hour),
		RedisAddr:      p.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  p.str("REDIS_PASSWORD", ""),
		RedisDB:        p.integer("REDIS_DB", 0),

		FirebaseProjectID:            p.str("FIREBASE_PROJECT_ID", ""),
		FirestoreDatabaseID:          p.str("FIRESTORE_DATABASE_ID", ""),
		GoogleApplicationCredentials: p.str("GOOGLE_APPLICATION_CREDENTIALS", ""),

		MinIOEndpoint:  p.str("MINIO_ENDPOINT", ""),
		MinIOAccessKey: p.str("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: p.str("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:    p.boolean("MINIO_USE_SSL", false),
		MinIOBucket:    p.str("MINIO_BUCKET", "portfolios"),
		PublicBaseURL:  strings.TrimRight(p.str("PUBLIC_BASE_URL", "http://localhost:9000/portfolios"), "/"),
	}

	switch cfg.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	case SessionBackendFirestore:
		if !cfg.FirebaseEnabled() {
			p.fail("SESSION_BACKEND", "firestore backend requires FIREBASE_PROJECT_ID")
		}
	default:
		p.fail("SESSION_BACKEND", fmt.Sprintf("unknown backend %q", cfg.SessionBackend))
	}
	if cfg.LLMReplyTimeout <= 0 {
		p.fail("LLM_REPLY_TIMEOUT", "must be positive")
	}
	if cfg.LLMExtractTimeout <= 0 {
		p.fail("LLM_EXTRACT_TIMEOUT", "must be positive")
	}
	if cfg.LLMQueriesPerMin < 0 {
		p.fail("LLM_QPM", "must not be negative")
	}

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

// Error describes an invalid environment variable.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) fail(key, reason string) {
	p.errs = append(p.errs, &Error{Key: key, Reason: reason})
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) list(key string) []string {
	v, ok := p.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid duration %q", v))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid integer %q", v))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid boolean %q", v))
		return def
	}
	return b
}
