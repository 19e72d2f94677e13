package ports

import (
	"context"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

type PortalService interface {
	BundleFor(ctx context.Context, role domain.Role) (domain.Bundle, error)
	UpdateBundleFor(ctx context.Context, role domain.Role, bundle domain.Bundle) error
}
