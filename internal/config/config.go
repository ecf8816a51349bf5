// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Token    TokenConfig
	SMTP     SMTPConfig
	Google   GoogleConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
	CORSOrigins []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type TLSConfig struct {
	Mode     string // off, manual
	CertFile string
	KeyFile  string
}

// TokenConfig configures the bearer session tokens.
type TokenConfig struct {
	Secret   string
	Lifetime time.Duration
}

// SMTPConfig configures outbound mail for OTP delivery.
type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// GoogleConfig configures Google sign-in.
type GoogleConfig struct {
	ClientID string // expected audience of Google ID tokens
}

var (
	ErrMissingTokenSecret    = errors.New("token secret is required")
	ErrMissingSMTPHost       = errors.New("SMTP host is required")
	ErrMissingSMTPFrom       = errors.New("SMTP from address is required")
	ErrMissingGoogleClientID = errors.New("google client id is required")
	ErrInvalidTLSMode        = errors.New("invalid TLS mode")
)

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
			CORSOrigins: splitList(cmd.String("cors-origins")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     strings.ToLower(cmd.String("tls-mode")),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Token: TokenConfig{
			Secret:   cmd.String("token-secret"),
			Lifetime: cmd.Duration("token-lifetime"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Google: GoogleConfig{
			ClientID: cmd.String("google-client-id"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Validate reports the first missing or malformed required setting.
func (c *Config) Validate() error {
	if c.Token.Secret == "" {
		return ErrMissingTokenSecret
	}
	if c.SMTP.Host == "" {
		return ErrMissingSMTPHost
	}
	if c.SMTP.From == "" {
		return ErrMissingSMTPFrom
	}
	if c.Google.ClientID == "" {
		return ErrMissingGoogleClientID
	}
	switch c.TLS.Mode {
	case "", "off":
	case "manual":
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("%w: manual mode needs tls-cert-file and tls-key-file", ErrInvalidTLSMode)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTLSMode, c.TLS.Mode)
	}
	return nil
}

func buildBaseURL(cfg *Config) string {
	scheme := "http"
	if cfg.TLS.Mode == "manual" {
		scheme = "https"
	}

	// Hide default ports in URL
	port := cfg.Server.Port
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, cfg.Server.Host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Server.Host, port)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func source(envKey, tomlKey string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(envKey), toml.TOML(tomlKey, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   5000,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "cors-origins",
			Value:   "http://localhost:5173",
			Usage:   "Comma-separated list of origins allowed to call the API",
			Sources: source("CORS_ORIGINS", "server.cors_origins"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/notes.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "off",
			Usage:   "TLS mode (off, manual)",
			Sources: source("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		// Token flags
		&cli.StringFlag{
			Name:    "token-secret",
			Usage:   "Secret used to sign session tokens (required)",
			Sources: source("JWT_SECRET", "token.secret"),
		},
		&cli.DurationFlag{
			Name:    "token-lifetime",
			Value:   7 * 24 * time.Hour,
			Usage:   "Lifetime of issued session tokens",
			Sources: source("JWT_EXPIRES_IN", "token.lifetime"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (required)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("EMAIL_USER", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("EMAIL_PASS", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outbound mail (required)",
			Sources: source("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "HD Notes App",
			Usage:   "Sender display name",
			Sources: source("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		// Google sign-in
		&cli.StringFlag{
			Name:    "google-client-id",
			Usage:   "Google OAuth client ID used as ID token audience (required)",
			Sources: source("GOOGLE_CLIENT_ID", "google.client_id"),
		},
	}
}
