package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration sourced from the environment
// so main stays lean.
type Config struct {
	Addr string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	AuthSigningKey string

	CredentialRoot string

	Regulator RegulatorConfig
}

// RegulatorConfig holds per-environment regulator endpoints and client
// credentials plus the shared retry tuning.
type RegulatorConfig struct {
	SandboxBaseURL    string
	SandboxAPIKey     string
	ProductionBaseURL string
	ProductionAPIKey  string

	RequestTimeout time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults for everything except production regulator credentials.
func FromEnv() Config {
	return Config{
		Addr:           envOr("FATOORA_ADDR", ":8080"),
		PostgresDSN:    os.Getenv("FATOORA_POSTGRES_DSN"),
		RedisURL:       os.Getenv("FATOORA_REDIS_URL"),
		KafkaBrokers:   splitList(os.Getenv("FATOORA_KAFKA_BROKERS")),
		AuditTopic:     envOr("FATOORA_AUDIT_TOPIC", "fatoora.audit.events"),
		AuthSigningKey: envOr("FATOORA_AUTH_SIGNING_KEY", "dev-secret-key-change-in-production"),
		CredentialRoot: envOr("FATOORA_CREDENTIAL_ROOT", "/var/lib/fatoora/credentials"),
		Regulator: RegulatorConfig{
			SandboxBaseURL:    envOr("FATOORA_REGULATOR_SANDBOX_URL", "https://gw-fatoora-sim.example.gov/e-invoicing/developer-portal"),
			SandboxAPIKey:     os.Getenv("FATOORA_REGULATOR_SANDBOX_KEY"),
			ProductionBaseURL: os.Getenv("FATOORA_REGULATOR_PRODUCTION_URL"),
			ProductionAPIKey:  os.Getenv("FATOORA_REGULATOR_PRODUCTION_KEY"),
			RequestTimeout:    envDuration("FATOORA_REGULATOR_TIMEOUT", 30*time.Second),
			MaxAttempts:       envInt("FATOORA_REGULATOR_MAX_ATTEMPTS", 3),
			InitialBackoff:    envDuration("FATOORA_REGULATOR_BACKOFF", 500*time.Millisecond),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
