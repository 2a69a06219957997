// Package certtest generates throwaway RSA credentials for tests.
package certtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// Credential is a self-signed certificate with its matching private key.
type Credential struct {
	CertPEM []byte
	KeyPEM  []byte
	Key     *rsa.PrivateKey
}

// NewCredential generates a fresh self-signed credential valid for a year.
func NewCredential(t *testing.T, commonName string) Credential {
	t.Helper()
	return newCredential(t, commonName, time.Now().Add(365*24*time.Hour))
}

// NewExpiredCredential generates a credential whose validity ended in the past.
func NewExpiredCredential(t *testing.T, commonName string) Credential {
	t.Helper()
	return newCredential(t, commonName, time.Now().Add(-24*time.Hour))
}

func newCredential(t *testing.T, commonName string, notAfter time.Time) Credential {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"fatoora-test"}},
		NotBefore:    notAfter.Add(-366 * 24 * time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	return Credential{CertPEM: certPEM, KeyPEM: keyPEM, Key: key}
}
