package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSigned(t *testing.T) {
	t.Parallel()

	t.Run("produces a usable key pair", func(t *testing.T) {
		t.Parallel()
		m, err := GenerateSelfSigned()
		require.NoError(t, err)

		_, err = tls.X509KeyPair(m.CertPEM, m.KeyPEM)
		assert.NoError(t, err)
	})

	t.Run("covers localhost and loopback", func(t *testing.T) {
		t.Parallel()
		m, err := GenerateSelfSigned()
		require.NoError(t, err)

		block, _ := pem.Decode(m.CertPEM)
		require.NotNil(t, block)
		cert, err := x509.ParseCertificate(block.Bytes)
		require.NoError(t, err)

		assert.Contains(t, cert.DNSNames, "localhost")
		require.NoError(t, cert.VerifyHostname("127.0.0.1"))
		require.NoError(t, cert.VerifyHostname("::1"))
	})

	t.Run("includes extra hosts", func(t *testing.T) {
		t.Parallel()
		m, err := GenerateSelfSigned("stub.test", "10.0.0.7")
		require.NoError(t, err)

		block, _ := pem.Decode(m.CertPEM)
		cert, err := x509.ParseCertificate(block.Bytes)
		require.NoError(t, err)

		assert.Contains(t, cert.DNSNames, "stub.test")
		assert.NoError(t, cert.VerifyHostname("10.0.0.7"))
	})
}

func TestMaterialServerConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid material builds a config", func(t *testing.T) {
		t.Parallel()
		m, err := GenerateSelfSigned()
		require.NoError(t, err)

		cfg, err := m.ServerConfig()
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	})

	t.Run("garbage material is rejected", func(t *testing.T) {
		t.Parallel()
		m := &Material{CertPEM: []byte("junk"), KeyPEM: []byte("junk")}
		_, err := m.ServerConfig()
		assert.Error(t, err)
	})
}

func TestMaterialCertPool(t *testing.T) {
	t.Parallel()

	m, err := GenerateSelfSigned()
	require.NoError(t, err)
	pool, err := m.CertPool()
	require.NoError(t, err)
	assert.NotNil(t, pool)

	bad := &Material{CertPEM: []byte("junk")}
	_, err = bad.CertPool()
	assert.Error(t, err)
}

func TestLoadMaterial(t *testing.T) {
	t.Parallel()

	t.Run("round-trips through files", func(t *testing.T) {
		t.Parallel()
		m, err := GenerateSelfSigned()
		require.NoError(t, err)

		dir := t.TempDir()
		certFile := filepath.Join(dir, "cert.pem")
		keyFile := filepath.Join(dir, "key.pem")
		require.NoError(t, os.WriteFile(certFile, m.CertPEM, 0o600))
		require.NoError(t, os.WriteFile(keyFile, m.KeyPEM, 0o600))

		loaded, err := LoadMaterial(certFile, keyFile)
		require.NoError(t, err)
		assert.Equal(t, m.CertPEM, loaded.CertPEM)
		assert.Equal(t, m.KeyPEM, loaded.KeyPEM)
	})

	t.Run("missing files are reported", func(t *testing.T) {
		t.Parallel()
		_, err := LoadMaterial("/nope/cert.pem", "/nope/key.pem")
		assert.Error(t, err)
	})
}
