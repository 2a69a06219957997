package verifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/testutil/certtest"
)

func TestVerifyMatchingPair(t *testing.T) {
	cred := certtest.NewCredential(t, "tenant-a")
	assert.NoError(t, Verify(cred.CertPEM, cred.KeyPEM))
}

func TestVerifyMismatchedKeyIsHardFailure(t *testing.T) {
	cred := certtest.NewCredential(t, "tenant-a")
	other := certtest.NewCredential(t, "tenant-b")

	err := Verify(cred.CertPEM, other.KeyPEM)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
	assert.Contains(t, err.Error(), "CERT_KEY_MISMATCH")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	cred := certtest.NewCredential(t, "tenant-a")

	t.Run("bad certificate PEM", func(t *testing.T) {
		err := Verify([]byte("not a pem"), cred.KeyPEM)
		assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
	})

	t.Run("bad key PEM", func(t *testing.T) {
		err := Verify(cred.CertPEM, []byte("not a pem"))
		assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
	})

	t.Run("empty inputs", func(t *testing.T) {
		err := Verify(nil, nil)
		assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
	})
}

func TestCheckExpiry(t *testing.T) {
	t.Run("valid window passes", func(t *testing.T) {
		cred := certtest.NewCredential(t, "tenant-a")
		assert.NoError(t, CheckExpiry(cred.CertPEM, time.Now()))
	})

	t.Run("expired certificate is rejected", func(t *testing.T) {
		cred := certtest.NewExpiredCredential(t, "tenant-a")
		err := CheckExpiry(cred.CertPEM, time.Now())
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeCertificate))
	})
}

func TestParseExtractsMetadata(t *testing.T) {
	cred := certtest.NewCredential(t, "tenant-a")
	cert, err := Parse(cred.CertPEM)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", cert.Subject.CommonName)
	assert.NotNil(t, cert.SerialNumber)
}
