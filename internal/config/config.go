// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package config resolves service configuration from flags, environment
// variables and an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// DevSecret is the signing secret used when --dev is set and no JWT secret is configured.
const DevSecret = "dev-secret-change-me"

// DefaultCORSOrigins are the local frontend dev-server origins.
const DefaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")
	ErrMissingSecret      = errors.New("JWT_SECRET is not set (use --dev to fall back to the development secret)")
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Dev      bool           `toml:"dev"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	CORS     CORSConfig     `toml:"cors"`
	TLS      TLSConfig      `toml:"tls"`
}

type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MaxBodySize int    `toml:"max_body_size"` // in MB
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

type DatabaseConfig struct {
	URL          string        `toml:"url"`
	WaitTimeout  time.Duration `toml:"wait_timeout"`
	WaitInterval time.Duration `toml:"wait_interval"`
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	JWTSecret         string        `toml:"jwt_secret"`
	TokenTTL          time.Duration `toml:"token_ttl"`
	MinPasswordLength int           `toml:"min_password_length"`
	PasswordRounds    int           `toml:"password_rounds"`
}

type CORSConfig struct {
	Origins []string `toml:"origins"`
}

type TLSConfig struct {
	Mode     string `toml:"mode"`      // off, acme, manual
	CertDir  string `toml:"cert_dir"`  // ACME certificate cache
	Email    string `toml:"email"`     // ACME email for Let's Encrypt
	CertFile string `toml:"cert_file"` // Path to certificate file (manual mode)
	KeyFile  string `toml:"key_file"`  // Path to private key file (manual mode)
}

// Addr returns host:port for the listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Dev: cmd.Bool("dev"),
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			URL:          cmd.String("database-url"),
			WaitTimeout:  cmd.Duration("db-wait-timeout"),
			WaitInterval: cmd.Duration("db-wait-interval"),
		},
		Auth: AuthConfig{
			JWTSecret:         cmd.String("jwt-secret"),
			TokenTTL:          cmd.Duration("token-ttl"),
			MinPasswordLength: int(cmd.Int("min-password-length")),
			PasswordRounds:    int(cmd.Int("password-rounds")),
		},
		CORS: CORSConfig{
			Origins: SplitOrigins(cmd.String("cors-origins")),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
	}
}

// Validate checks required settings. In dev mode a missing JWT secret is
// replaced by DevSecret.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}

	if c.Auth.JWTSecret == "" {
		if !c.Dev {
			return ErrMissingSecret
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		c.Auth.JWTSecret = DevSecret
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	switch strings.ToLower(c.TLS.Mode) {
	case "", "off", "manual", "acme":
	default:
		return fmt.Errorf("invalid TLS mode %q", c.TLS.Mode)
	}

	return nil
}

// Redacted returns a copy safe for printing.
func (c *Config) Redacted() Config {
	out := *c
	out.CORS.Origins = slices.Clone(c.CORS.Origins)
	if out.Auth.JWTSecret != "" {
		out.Auth.JWTSecret = "<redacted>"
	}
	if out.Database.URL != "" {
		out.Database.URL = redactURL(out.Database.URL)
	}
	return out
}

// redactURL hides the password of user:password@host URLs.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return raw
	}
	return scheme + "://" + user + ":xxxxx@" + host
}

// SplitOrigins parses a comma-separated origin list, dropping blanks.
func SplitOrigins(s string) []string {
	origins := []string{}
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

// ConfigFlag is the --config flag. Its value feeds the TOML sources of all other flags.
func ConfigFlag(configFile *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Value:       "config.toml",
		Usage:       "Path to configuration file",
		Destination: configFile,
		Sources:     cli.EnvVars("CONFIG"),
	}
}

// Service names a binary; it selects per-service defaults.
type Service string

const (
	ServiceAuth  Service = "auth"
	ServiceTasks Service = "tasks"
)

// Flags returns the flags shared by both services.
func Flags(configFile *string, service Service) []cli.Flag {
	tomlSrc := altsrc.NewStringPtrSourcer(configFile)

	port := &cli.IntFlag{
		Name:    "port",
		Value:   8001,
		Usage:   "Port to listen on",
		Sources: sources("PORT", "server.port", tomlSrc),
	}
	if service == ServiceTasks {
		port.Value = 8002
	}

	return []cli.Flag{
		ConfigFlag(configFile),
		&cli.BoolFlag{
			Name:    "dev",
			Usage:   "Development mode (allows the built-in JWT secret)",
			Sources: sources("DEV", "dev", tomlSrc),
		},

		// Server
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host", tomlSrc),
		},
		port,
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size", tomlSrc),
		},

		// Logging
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
		},

		// Database
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database URL (postgres://... or a SQLite path)",
			Sources: sources("DATABASE_URL", "database.url", tomlSrc),
		},
		&cli.DurationFlag{
			Name:    "db-wait-timeout",
			Value:   30 * time.Second,
			Usage:   "How long to wait for the database at startup",
			Sources: sources("DB_WAIT_TIMEOUT", "database.wait_timeout", tomlSrc),
		},
		&cli.DurationFlag{
			Name:    "db-wait-interval",
			Value:   500 * time.Millisecond,
			Usage:   "Delay between database readiness checks",
			Sources: sources("DB_WAIT_INTERVAL", "database.wait_interval", tomlSrc),
		},

		// Tokens
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "Shared HS256 signing secret",
			Sources: sources("JWT_SECRET", "auth.jwt_secret", tomlSrc),
		},

		// CORS
		&cli.StringFlag{
			Name:    "cors-origins",
			Value:   DefaultCORSOrigins,
			Usage:   "Comma-separated list of allowed CORS origins",
			Sources: sources("CORS_ORIGINS", "cors.origins", tomlSrc),
		},

		// TLS
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "off",
			Usage:   "TLS mode (off, acme, manual)",
			Sources: sources("TLS_MODE", "tls.mode", tomlSrc),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for ACME certificates",
			Sources: sources("TLS_CERT_DIR", "tls.cert_dir", tomlSrc),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: sources("TLS_EMAIL", "tls.email", tomlSrc),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: sources("TLS_CERT_FILE", "tls.cert_file", tomlSrc),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: sources("TLS_KEY_FILE", "tls.key_file", tomlSrc),
		},
	}
}

// AuthFlags returns the flags only the auth service uses.
func AuthFlags(configFile *string) []cli.Flag {
	tomlSrc := altsrc.NewStringPtrSourcer(configFile)

	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "token-ttl",
			Value:   60 * time.Minute,
			Usage:   "Lifetime of issued access tokens",
			Sources: sources("TOKEN_TTL", "auth.token_ttl", tomlSrc),
		},
		&cli.IntFlag{
			Name:    "min-password-length",
			Value:   6,
			Usage:   "Minimum password length at registration",
			Sources: sources("MIN_PASSWORD_LENGTH", "auth.min_password_length", tomlSrc),
		},
		&cli.IntFlag{
			Name:    "password-rounds",
			Value:   29000,
			Usage:   "PBKDF2 iterations for new password hashes",
			Sources: sources("PASSWORD_ROUNDS", "auth.password_rounds", tomlSrc),
		},
	}
}
