package credstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFileStorePutGet(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())

	cred := Credential{CertPEM: []byte("CERT"), KeyPEM: []byte("KEY")}
	require.NoError(t, s.Put(ctx, tenant, id.EnvironmentSandbox, cred))

	got, err := s.Get(ctx, tenant, id.EnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestFileStoreMissingCredential(t *testing.T) {
	s := newFileStore(t)
	_, err := s.Get(context.Background(), id.TenantID(uuid.New()), id.EnvironmentSandbox)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestFileStoreTenantIsolation(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	tenantA := id.TenantID(uuid.New())
	tenantB := id.TenantID(uuid.New())

	require.NoError(t, s.Put(ctx, tenantA, id.EnvironmentSandbox, Credential{CertPEM: []byte("A-CERT"), KeyPEM: []byte("A-KEY")}))

	_, err := s.Get(ctx, tenantB, id.EnvironmentSandbox)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound), "tenant B must not see tenant A's credential")
}

func TestFileStoreEnvironmentIsolation(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())

	require.NoError(t, s.Put(ctx, tenant, id.EnvironmentSandbox, Credential{CertPEM: []byte("SBX"), KeyPEM: []byte("SBX-KEY")}))

	_, err := s.Get(ctx, tenant, id.EnvironmentProduction)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound), "production must not see the sandbox credential")
}

func TestFileStoreReplaceIsAtomicPair(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())

	require.NoError(t, s.Put(ctx, tenant, id.EnvironmentProduction, Credential{CertPEM: []byte("OLD-CERT"), KeyPEM: []byte("OLD-KEY")}))
	require.NoError(t, s.Put(ctx, tenant, id.EnvironmentProduction, Credential{CertPEM: []byte("NEW-CERT"), KeyPEM: []byte("NEW-KEY")}))

	got, err := s.Get(ctx, tenant, id.EnvironmentProduction)
	require.NoError(t, err)
	assert.Equal(t, "NEW-CERT", string(got.CertPEM))
	assert.Equal(t, "NEW-KEY", string(got.KeyPEM))
}

func TestFileStoreConcurrentSwapNeverTearsPair(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	tenant := id.TenantID(uuid.New())

	require.NoError(t, s.Put(ctx, tenant, id.EnvironmentSandbox, Credential{CertPEM: []byte("CERT-0"), KeyPEM: []byte("KEY-0")}))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			suffix := []byte{byte('0' + i%10)}
			_ = s.Put(ctx, tenant, id.EnvironmentSandbox, Credential{
				CertPEM: append([]byte("CERT-"), suffix...),
				KeyPEM:  append([]byte("KEY-"), suffix...),
			})
		}
	}()

	for i := 0; i < 200; i++ {
		got, err := s.Get(ctx, tenant, id.EnvironmentSandbox)
		require.NoError(t, err)
		// Suffixes must agree: cert N pairs with key N.
		assert.Equal(t, got.CertPEM[len(got.CertPEM)-1], got.KeyPEM[len(got.KeyPEM)-1], "torn credential pair observed")
	}
	close(stop)
	wg.Wait()
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	tenant := id.TenantID(uuid.New())
	require.NoError(t, s.Put(context.Background(), tenant, id.EnvironmentSandbox, Credential{CertPEM: []byte("C"), KeyPEM: []byte("K")}))

	keyPath := filepath.Join(root, tenant.String(), "SANDBOX", "private.key")
	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "private key must be owner-only")
}

func TestFileStoreRejectsZeroValues(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	assert.Error(t, s.Put(ctx, id.TenantID{}, id.EnvironmentSandbox, Credential{CertPEM: []byte("C"), KeyPEM: []byte("K")}))
	assert.Error(t, s.Put(ctx, id.TenantID(uuid.New()), id.Environment("staging"), Credential{CertPEM: []byte("C"), KeyPEM: []byte("K")}))
	_, err := s.Get(ctx, id.TenantID{}, id.EnvironmentSandbox)
	assert.Error(t, err)
}
