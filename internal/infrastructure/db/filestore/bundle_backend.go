// Package filestore persists bundles as one JSON file per role.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/db/bundlestore"
)

const fileMode = 0o644

// BundleBackend reads and writes <dir>/<role>.json.
type BundleBackend struct {
	dir string
}

var _ ports.BundleBackend = (*BundleBackend)(nil)

func NewBundleBackend(dir string) *BundleBackend {
	return &BundleBackend{dir: dir}
}

func (b *BundleBackend) path(role domain.Role) string {
	return filepath.Join(b.dir, role.String()+".json")
}

// Read returns domain.ErrNotFound (wrapped) when the role has no file.
func (b *BundleBackend) Read(_ context.Context, role domain.Role) (domain.Bundle, error) {
	data, err := os.ReadFile(b.path(role))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", b.path(role), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read bundle file: %w", err)
	}
	return bundlestore.Decode(data)
}

// Write replaces the role's file atomically: the document is written to a
// temp file in the same directory and renamed over the target, so readers
// see either the old or the new document.
func (b *BundleBackend) Write(_ context.Context, role domain.Role, doc domain.Bundle) error {
	data, err := bundlestore.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, role.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp bundle file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp bundle file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp bundle file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod temp bundle file: %w", err)
	}
	if err := os.Rename(tmpName, b.path(role)); err != nil {
		return fmt.Errorf("replace bundle file: %w", err)
	}
	return nil
}

// Ping checks that the bundle directory exists.
func (b *BundleBackend) Ping(context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return fmt.Errorf("bundle dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle dir: %s is not a directory", b.dir)
	}
	return nil
}
