package credstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

const (
	dirMode  = 0o700
	fileMode = 0o600

	certFile = "certificate.pem"
	keyFile  = "private.key"
)

// FileStore keeps credentials on disk under
// <root>/<tenant-id>/<environment>/{certificate.pem,private.key} with owner-only
// permissions.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("credential root is required")
	}
	if err := os.MkdirAll(root, dirMode); err != nil {
		return nil, fmt.Errorf("create credential root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Put writes both files to a staging directory and renames it into place so
// readers never see a half-written pair. The previous credential, if any, is
// replaced in the same rename.
func (s *FileStore) Put(_ context.Context, tenantID id.TenantID, env id.Environment, cred Credential) error {
	if err := validateKeys(tenantID, env); err != nil {
		return err
	}
	if len(cred.CertPEM) == 0 || len(cred.KeyPEM) == 0 {
		return fmt.Errorf("certificate and key are both required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tenantDir := filepath.Join(s.root, tenantID.String())
	if err := os.MkdirAll(tenantDir, dirMode); err != nil {
		return fmt.Errorf("create tenant dir: %w", err)
	}

	staging, err := os.MkdirTemp(tenantDir, "."+string(env)+".staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := os.WriteFile(filepath.Join(staging, certFile), cred.CertPEM, fileMode); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, keyFile), cred.KeyPEM, fileMode); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	final := filepath.Join(tenantDir, string(env))
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("clear previous credential: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("activate credential: %w", err)
	}
	return nil
}

// Get reads the active credential pair.
func (s *FileStore) Get(_ context.Context, tenantID id.TenantID, env id.Environment) (Credential, error) {
	if err := validateKeys(tenantID, env); err != nil {
		return Credential{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, tenantID.String(), string(env))
	certPEM, err := os.ReadFile(filepath.Join(dir, certFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, sentinel.ErrNotFound
		}
		return Credential{}, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(filepath.Join(dir, keyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, sentinel.ErrNotFound
		}
		return Credential{}, fmt.Errorf("read private key: %w", err)
	}
	return Credential{CertPEM: certPEM, KeyPEM: keyPEM}, nil
}

// Delete removes a tenant's credential for one environment. Used to roll
// back when metadata activation fails after the files were written.
func (s *FileStore) Delete(_ context.Context, tenantID id.TenantID, env id.Environment) error {
	if err := validateKeys(tenantID, env); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, tenantID.String(), string(env))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// validateKeys guards the addressing scheme: tenant IDs render as UUIDs and
// the environment enum is closed, so no path traversal is possible, but a
// zero value would collapse isolation.
func validateKeys(tenantID id.TenantID, env id.Environment) error {
	if tenantID.IsNil() {
		return fmt.Errorf("tenant id is required")
	}
	if !env.Valid() {
		return fmt.Errorf("environment %q is invalid", env)
	}
	return nil
}
