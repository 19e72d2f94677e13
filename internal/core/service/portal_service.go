package service

import (
	"context"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

// PortalService exposes bundle reads and writes keyed by role.
type PortalService struct {
	repo ports.BundleRepository
}

func NewPortalService(repo ports.BundleRepository) *PortalService {
	return &PortalService{repo: repo}
}

func (s *PortalService) BundleFor(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	return s.repo.Get(ctx, role)
}

func (s *PortalService) UpdateBundleFor(ctx context.Context, role domain.Role, bundle domain.Bundle) error {
	return s.repo.Update(ctx, role, bundle)
}
