package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

const mimePDF = "application/pdf"

var safeReportName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type ReportHandler struct {
	renderer ports.ReportRenderer
}

func NewReportHandler(renderer ports.ReportRenderer) *ReportHandler {
	return &ReportHandler{renderer: renderer}
}

type generateReportRequest struct {
	ReportType string           `json:"reportType" validate:"required,max=64"`
	Records    []map[string]any `json:"records"`
	Metadata   map[string]any   `json:"metadata"`
}

// Generate renders the posted records to a PDF attachment.
//
// @Summary      Generate report PDF
// @Tags         reports
// @Accept       json
// @Produce      application/pdf
// @Param        body  body      generateReportRequest  true  "Report type, records and metadata"
// @Success      200   {file}    binary
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /reports/generate-pdf [post]
func (h *ReportHandler) Generate(c echo.Context) error {
	var req generateReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.renderer.Render(c.Request().Context(), domain.ReportRequest{
		ReportType: domain.ReportType(req.ReportType),
		Records:    req.Records,
		Metadata:   req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRenderingUnavailable) || errors.Is(err, context.Canceled) {
			return err
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error generating PDF: "+err.Error()).SetInternal(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", attachmentName(req.ReportType)))
	return c.Blob(http.StatusOK, mimePDF, out)
}

func attachmentName(reportType string) string {
	if !safeReportName.MatchString(reportType) {
		return "report.pdf"
	}
	return reportType + "-report.pdf"
}
