package signing

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatoora/internal/certificate/credstore"
	"fatoora/internal/document"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/requestcontext"
	"fatoora/pkg/testutil/certtest"
)

func testDoc() *document.CanonicalDocument {
	return &document.CanonicalDocument{
		UUID:          uuid.NewString(),
		InvoiceNumber: "INV-42",
		PreviousHash:  document.SentinelPreviousHash,
		XML:           []byte(`<?xml version="1.0"?><Invoice><cbc:ID>INV-42</cbc:ID></Invoice>`),
	}
}

func storedCredential(t *testing.T, creds credstore.Store, tenant id.TenantID, env id.Environment) certtest.Credential {
	t.Helper()
	cred := certtest.NewCredential(t, "signer-test")
	require.NoError(t, creds.Put(context.Background(), tenant, env, credstore.Credential{
		CertPEM: cred.CertPEM,
		KeyPEM:  cred.KeyPEM,
	}))
	return cred
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	creds := credstore.NewInMemory()
	tenant := id.TenantID(uuid.New())
	cred := storedCredential(t, creds, tenant, id.EnvironmentSandbox)

	signer := New(creds)
	doc := testDoc()
	signed, err := signer.Sign(context.Background(), tenant, id.EnvironmentSandbox, doc)
	require.NoError(t, err)

	// The canonical hash covers the document bytes exactly.
	wantDigest := sha256.Sum256(doc.XML)
	assert.Equal(t, base64.StdEncoding.EncodeToString(wantDigest[:]), signed.CanonicalHash)

	// The detached signature verifies against the credential's public key.
	sig, err := base64.StdEncoding.DecodeString(signed.Signature)
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(&cred.Key.PublicKey, crypto.SHA256, wantDigest[:], sig))

	// The chain hash covers document plus signature.
	wantChain := sha256.Sum256(append(append([]byte{}, doc.XML...), sig...))
	assert.Equal(t, base64.StdEncoding.EncodeToString(wantChain[:]), signed.SignedHash)

	assert.NotEmpty(t, signed.CertificateSerial)
	assert.Equal(t, doc.UUID, signed.DocumentUUID)
}

func TestSignMissingCredential(t *testing.T) {
	signer := New(credstore.NewInMemory())
	_, err := signer.Sign(context.Background(), id.TenantID(uuid.New()), id.EnvironmentSandbox, testDoc())
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
}

func TestSignExpiredCredential(t *testing.T) {
	creds := credstore.NewInMemory()
	tenant := id.TenantID(uuid.New())
	expired := certtest.NewExpiredCredential(t, "signer-test")
	require.NoError(t, creds.Put(context.Background(), tenant, id.EnvironmentProduction, credstore.Credential{
		CertPEM: expired.CertPEM,
		KeyPEM:  expired.KeyPEM,
	}))

	signer := New(creds)
	_, err := signer.Sign(context.Background(), tenant, id.EnvironmentProduction, testDoc())
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
}

func TestSignUsesRequestTimeForExpiry(t *testing.T) {
	creds := credstore.NewInMemory()
	tenant := id.TenantID(uuid.New())
	storedCredential(t, creds, tenant, id.EnvironmentSandbox)

	// Far in the future the credential has expired.
	ctx := requestcontext.WithTime(context.Background(), time.Now().Add(10*365*24*time.Hour))
	_, err := New(creds).Sign(ctx, tenant, id.EnvironmentSandbox, testDoc())
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
}

func TestSignChainsAcrossInvoices(t *testing.T) {
	creds := credstore.NewInMemory()
	tenant := id.TenantID(uuid.New())
	storedCredential(t, creds, tenant, id.EnvironmentSandbox)
	signer := New(creds)

	first, err := signer.Sign(context.Background(), tenant, id.EnvironmentSandbox, testDoc())
	require.NoError(t, err)

	// The next document embeds the previous signed hash; the signer output
	// for it differs because its bytes differ.
	second := testDoc()
	second.PreviousHash = first.SignedHash
	second.XML = append(second.XML, []byte(first.SignedHash)...)

	signedSecond, err := signer.Sign(context.Background(), tenant, id.EnvironmentSandbox, second)
	require.NoError(t, err)
	assert.NotEqual(t, first.SignedHash, signedSecond.SignedHash)
}
