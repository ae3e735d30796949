// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig
	Server   ServerConfig
	GRPC     GRPCConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Authz    AuthzConfig
	NATS     NATSConfig
	Routing  RoutingConfig
}

type ServiceConfig struct {
	Name           string
	Version        string
	Environment    string
	MigrateOnStart bool
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type GRPCConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	MaxConnTime time.Duration
	MaxIdleTime time.Duration
	HealthCheck time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

type AuthzConfig struct {
	Mode string
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// RoutingConfig holds caller policy for requests that match no approval rule.
type RoutingConfig struct {
	// FallbackRole is the single stage role used when no rule matches.
	// Empty leaves unmatched requests without stages.
	FallbackRole string
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	r := &reader{}
	cfg := &Config{
		Service: ServiceConfig{
			Name:           r.str("SERVICE_NAME", "be-procurement"),
			Version:        r.str("SERVICE_VERSION", "dev"),
			Environment:    r.str("ENVIRONMENT", "development"),
			MigrateOnStart: r.boolean("MIGRATE_ON_START", false),
		},
		Server: ServerConfig{
			Port:            r.integer("HTTP_PORT", 8080),
			ReadTimeout:     r.duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    r.duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     r.duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: r.duration("HTTP_SHUTDOWN_TIMEOUT", 20*time.Second),
			AllowedOrigins:  r.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		GRPC: GRPCConfig{
			Port: r.integer("GRPC_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:        r.str("DB_HOST", "localhost"),
			Port:        r.integer("DB_PORT", 5432),
			User:        r.str("DB_USER", "postgres"),
			Password:    r.str("DB_PASSWORD", ""),
			Database:    r.str("DB_NAME", "procurement"),
			SSLMode:     r.str("DB_SSLMODE", "disable"),
			MaxConns:    int32(r.integer("DB_MAX_CONNS", 10)),
			MinConns:    int32(r.integer("DB_MIN_CONNS", 1)),
			MaxConnTime: r.duration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxIdleTime: r.duration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			HealthCheck: r.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: r.str("JWT_SECRET", ""),
			TokenTTL:  r.duration("JWT_TTL", 24*time.Hour),
			Issuer:    r.str("JWT_ISSUER", "be-procurement"),
		},
		Authz: AuthzConfig{
			Mode: r.str("AUTHZ_MODE", "enforce"),
		},
		NATS: NATSConfig{
			URL:           r.str("NATS_URL", ""),
			SubjectPrefix: r.str("NATS_SUBJECT_PREFIX", "notifications.procurement"),
		},
		Routing: RoutingConfig{
			FallbackRole: r.str("ROUTING_FALLBACK_ROLE", "admin"),
		},
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Service.Environment != "development" {
			return nil, fmt.Errorf("invalid configuration: JWT_SECRET is required in %s", cfg.Service.Environment)
		}
		cfg.Auth.JWTSecret = "dev-secret-only"
	}

	return cfg, nil
}

// DSN renders the database settings as a libpq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// reader collects parse failures so Load reports all of them at once.
type reader struct {
	errs []string
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s must be an integer", key))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s must be a boolean", key))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s must be a duration", key))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
