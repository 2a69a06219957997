// Package verifier proves a stored private key matches its certificate
// before the credential is trusted. It runs on every path that can introduce
// a credential: manual upload and both onboarding receipts.
package verifier

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"time"

	derrors "fatoora/pkg/domain-errors"
)

// Verify extracts the public key from the certificate, derives the public
// key from the private key, and compares RSA modulus and exponent. Any
// mismatch is a hard CERT_KEY_MISMATCH failure, never a warning.
func Verify(certPEM, keyPEM []byte) error {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return err
	}

	certPub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return derrors.New(derrors.CodeCertificate, "certificate does not carry an RSA public key")
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return err
	}

	if certPub.N.Cmp(key.PublicKey.N) != 0 || certPub.E != key.PublicKey.E {
		return derrors.New(derrors.CodeCertificate, "CERT_KEY_MISMATCH: private key does not match certificate")
	}
	return nil
}

// CheckExpiry rejects certificates outside their validity window.
func CheckExpiry(certPEM []byte, now time.Time) error {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return err
	}
	if now.Before(cert.NotBefore) {
		return derrors.New(derrors.CodeCertificate, "certificate is not yet valid")
	}
	if now.After(cert.NotAfter) {
		return derrors.New(derrors.CodeCertificate, "certificate has expired")
	}
	return nil
}

// Parse returns the decoded certificate for metadata extraction (serial,
// issuer, expiry).
func Parse(certPEM []byte) (*x509.Certificate, error) {
	return parseCertificate(certPEM)
}

func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, derrors.New(derrors.CodeCertificate, "invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeCertificate, "failed to parse certificate")
	}
	return cert, nil
}

func parsePrivateKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, derrors.New(derrors.CodeCertificate, "invalid private key PEM")
	}

	// PKCS#1 first, then PKCS#8.
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeCertificate, "failed to parse private key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, derrors.New(derrors.CodeCertificate, "private key is not RSA")
	}
	return key, nil
}
