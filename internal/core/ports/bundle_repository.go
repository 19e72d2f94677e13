package ports

import (
	"context"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// BundleRepository owns the cached per-role bundles and the user record
// embedded in each of them.
type BundleRepository interface {
	// Get returns a defensive copy of the role's current bundle.
	Get(ctx context.Context, role domain.Role) (domain.Bundle, error)
	// Update replaces the role's bundle and writes it through to the backend.
	Update(ctx context.Context, role domain.Role, bundle domain.Bundle) error
	// FindRoleByEmail resolves a role from the email's local part. Never fails.
	FindRoleByEmail(email string) domain.Role
	// User returns the cached user for role.
	User(role domain.Role) (domain.User, error)
}

// BundleBackend is the durable storage behind the repository: one document
// per role.
type BundleBackend interface {
	// Read returns domain.ErrNotFound when no document exists for role.
	Read(ctx context.Context, role domain.Role) (domain.Bundle, error)
	Write(ctx context.Context, role domain.Role, bundle domain.Bundle) error
	Ping(ctx context.Context) error
}
