// Package signing computes the canonical document hash, applies the tenant's
// detached RSA signature, and produces the signed-document hash that chains
// to the next invoice.
package signing

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"

	"fatoora/internal/certificate/credstore"
	"fatoora/internal/certificate/verifier"
	"fatoora/internal/document"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
)

// SignedDocument is the signing output handed to the regulator client.
type SignedDocument struct {
	// CanonicalXML is the document exactly as hashed.
	CanonicalXML []byte
	// DocumentUUID is carried through from generation.
	DocumentUUID string
	// CanonicalHash is base64(SHA-256(CanonicalXML)); the value the
	// signature covers.
	CanonicalHash string
	// Signature is the base64 detached RSA signature over the canonical hash.
	Signature string
	// CertificateSerial identifies the signing credential.
	CertificateSerial string
	// SignedHash is base64(SHA-256(CanonicalXML || Signature)). The next
	// invoice in the tenant's chain embeds this as its previous hash.
	SignedHash string
}

// Signer signs canonical documents with the tenant's active credential.
type Signer struct {
	creds credstore.Store
}

func New(creds credstore.Store) *Signer {
	return &Signer{creds: creds}
}

// Sign loads the tenant's credential for the environment, checks validity,
// and produces the detached signature and chain hash.
func (s *Signer) Sign(ctx context.Context, tenantID id.TenantID, env id.Environment, doc *document.CanonicalDocument) (*SignedDocument, error) {
	cred, err := s.creds.Get(ctx, tenantID, env)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeCertificate, "no signing credential for this environment")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load signing credential")
	}

	now := requestcontext.Now(ctx)
	if err := verifier.CheckExpiry(cred.CertPEM, now); err != nil {
		return nil, err
	}

	cert, err := verifier.Parse(cred.CertPEM)
	if err != nil {
		return nil, err
	}

	key, err := parseSigningKey(cred.KeyPEM)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(doc.XML)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeCertificate, "failed to sign document")
	}

	signedHash := sha256.Sum256(append(append([]byte{}, doc.XML...), sig...))

	return &SignedDocument{
		CanonicalXML:      doc.XML,
		DocumentUUID:      doc.UUID,
		CanonicalHash:     base64.StdEncoding.EncodeToString(digest[:]),
		Signature:         base64.StdEncoding.EncodeToString(sig),
		CertificateSerial: cert.SerialNumber.String(),
		SignedHash:        base64.StdEncoding.EncodeToString(signedHash[:]),
	}, nil
}

func parseSigningKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, derrors.New(derrors.CodeCertificate, "invalid private key PEM")
	}
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
