// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 5000},
		Token:  TokenConfig{Secret: "secret", Lifetime: time.Hour},
		SMTP:   SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"},
		Google: GoogleConfig{ClientID: "client-id.apps.googleusercontent.com"},
		TLS:    TLSConfig{Mode: "off"},
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 5000},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost:5000",
		},
		{
			name: "manual TLS default port",
			cfg: &Config{
				Server: ServerConfig{Host: "example.com", Port: 443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://example.com",
		},
		{
			name: "manual TLS custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "example.com", Port: 8443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://example.com:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"missing token secret", func(c *Config) { c.Token.Secret = "" }, ErrMissingTokenSecret},
		{"missing smtp host", func(c *Config) { c.SMTP.Host = "" }, ErrMissingSMTPHost},
		{"missing smtp from", func(c *Config) { c.SMTP.From = "" }, ErrMissingSMTPFrom},
		{"missing google client id", func(c *Config) { c.Google.ClientID = "" }, ErrMissingGoogleClientID},
		{"unknown tls mode", func(c *Config) { c.TLS.Mode = "acme" }, ErrInvalidTLSMode},
		{"manual tls without files", func(c *Config) { c.TLS.Mode = "manual" }, ErrInvalidTLSMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestFlags(t *testing.T) {
	flags := Flags()

	assert.NotEmpty(t, flags)

	flagNames := make(map[string]bool)
	for _, f := range flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	assert.True(t, flagNames["host"], "should have host flag")
	assert.True(t, flagNames["port"], "should have port flag")
	assert.True(t, flagNames["database-dsn"], "should have database-dsn flag")
	assert.True(t, flagNames["token-secret"], "should have token-secret flag")
	assert.True(t, flagNames["token-lifetime"], "should have token-lifetime flag")
	assert.True(t, flagNames["smtp-host"], "should have smtp-host flag")
	assert.True(t, flagNames["google-client-id"], "should have google-client-id flag")
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.NotNil(t, cfg)
			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 5000, cfg.Server.Port)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format)
			assert.Equal(t, 7*24*time.Hour, cfg.Token.Lifetime)
			assert.Equal(t, 587, cfg.SMTP.Port)
			assert.True(t, cfg.SMTP.TLS)
			assert.Equal(t, "HD Notes App", cfg.SMTP.FromName)
			assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)

			// BaseURL should be auto-generated
			assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://notes.example.com", cfg.Server.BaseURL)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "./data/test.db", cfg.Database.DSN)
			assert.Equal(t, "s3cret", cfg.Token.Secret)
			assert.Equal(t, 2*time.Hour, cfg.Token.Lifetime)
			assert.Equal(t, "client-id", cfg.Google.ClientID)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://notes.example.com",
		"--log-level", "debug",
		"--database-dsn", "./data/test.db",
		"--token-secret", "s3cret",
		"--token-lifetime", "2h",
		"--google-client-id", "client-id",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
