package ports

import (
	"context"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// ReportRenderer turns a report request into a PDF document.
type ReportRenderer interface {
	Render(ctx context.Context, req domain.ReportRequest) ([]byte, error)
}
