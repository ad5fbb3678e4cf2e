package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string
	DatabaseURL string

	// AdminToken guards the policy administration endpoints. Empty locks
	// the surface entirely.
	AdminToken string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration

	// MaskKey keys identifier tokenization. Changing it rotates every
	// masked token in API output.
	MaskKey string

	// BreakGlassMaxDuration is the ceiling on requested elevation windows.
	BreakGlassMaxDuration time.Duration
	// SweepInterval is how often overdue approvals are settled in storage.
	SweepInterval time.Duration

	// AuditBuffer enables async audit publishing when positive.
	AuditBuffer int

	RequestTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                  envOr("LGIS_ADDR", ":8080"),
		Environment:           envOr("LGIS_ENV", "development"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		AdminToken:            os.Getenv("ADMIN_TOKEN"),
		JWTSigningKey:         envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:             envOr("JWT_ISSUER", "https://lgis.local"),
		JWTAudience:           envOr("JWT_AUDIENCE", "lgis-api"),
		TokenTTL:              durationOr("TOKEN_TTL", 15*time.Minute),
		MaskKey:               envOr("MASK_KEY", "dev-mask-key"),
		BreakGlassMaxDuration: durationOr("BREAK_GLASS_MAX_DURATION", 8*time.Hour),
		SweepInterval:         durationOr("BREAK_GLASS_SWEEP_INTERVAL", time.Minute),
		AuditBuffer:           intOr("AUDIT_BUFFER", 0),
		RequestTimeout:        durationOr("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
