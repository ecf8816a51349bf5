// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSelfSignedCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestSetupTLS_Off(t *testing.T) {
	for _, mode := range []string{"", "off"} {
		cfg := &config.Config{TLS: config.TLSConfig{Mode: mode}}

		tlsConfig, err := SetupTLS(cfg)

		require.NoError(t, err)
		assert.Nil(t, tlsConfig)
	}
}

func TestSetupTLS_UnknownMode(t *testing.T) {
	cfg := &config.Config{TLS: config.TLSConfig{Mode: "acme"}}

	_, err := SetupTLS(cfg)

	assert.ErrorContains(t, err, "unknown TLS mode")
}

func TestSetupTLS_Manual(t *testing.T) {
	certFile, keyFile := writeSelfSignedCert(t)
	cfg := &config.Config{TLS: config.TLSConfig{Mode: "manual", CertFile: certFile, KeyFile: keyFile}}

	tlsConfig, err := SetupTLS(cfg)

	require.NoError(t, err)
	require.NotNil(t, tlsConfig)
	assert.Len(t, tlsConfig.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
}

func TestSetupTLS_ManualMissingFiles(t *testing.T) {
	certFile, keyFile := writeSelfSignedCert(t)
	missing := filepath.Join(t.TempDir(), "missing.pem")

	tests := []struct {
		name    string
		tls     config.TLSConfig
		wantErr string
	}{
		{"no paths", config.TLSConfig{Mode: "manual"}, "requires both"},
		{"missing cert", config.TLSConfig{Mode: "manual", CertFile: missing, KeyFile: keyFile}, "certificate file not found"},
		{"missing key", config.TLSConfig{Mode: "manual", CertFile: certFile, KeyFile: missing}, "key file not found"},
		{"swapped files", config.TLSConfig{Mode: "manual", CertFile: keyFile, KeyFile: certFile}, "failed to load certificate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SetupTLS(&config.Config{TLS: tt.tls})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCertFingerprint(t *testing.T) {
	assert.Empty(t, certFingerprint(&tls.Certificate{}))

	fp := certFingerprint(&tls.Certificate{Certificate: [][]byte{[]byte("leaf")}})
	parts := strings.Split(fp, ":")
	assert.Len(t, parts, 32)
	for _, p := range parts {
		assert.Len(t, p, 2)
	}
}
