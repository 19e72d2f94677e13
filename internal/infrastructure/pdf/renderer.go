// Package pdf renders report layouts to PDF documents with go-pdf/fpdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/pkg/metrics"
)

const (
	fontFamilyUTF8 = "body"
	fontFamilyCore = "Helvetica"

	titleSize  = 16
	textSize   = 10
	headerSize = 9
	rowHeight  = 7
	orderWidth = 12
)

// Options configures a Renderer.
type Options struct {
	// FontPath points to a TrueType font with Vietnamese coverage. Empty
	// selects the built-in Helvetica, which only covers cp1252.
	FontPath string
	Creator  string
}

type Renderer struct {
	opts Options
	log  zerolog.Logger
}

var _ ports.ReportRenderer = (*Renderer)(nil)

func NewRenderer(opts Options, log zerolog.Logger) *Renderer {
	if opts.Creator == "" {
		opts.Creator = "HCMUT Portal"
	}
	return &Renderer{opts: opts, log: log}
}

// Render draws the layout derived from req. A configured but unreadable
// font yields domain.ErrRenderingUnavailable.
func (r *Renderer) Render(ctx context.Context, req domain.ReportRequest) ([]byte, error) {
	start := time.Now()
	label := typeLabel(req.ReportType)

	out, err := r.render(ctx, req)
	if err != nil {
		metrics.ReportsGeneratedTotal.WithLabelValues(label, "error").Inc()
		r.log.Error().Err(err).Str("report_type", string(req.ReportType)).Msg("report render failed")
		return nil, err
	}

	metrics.ReportsGeneratedTotal.WithLabelValues(label, "ok").Inc()
	metrics.ReportRenderDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	r.log.Info().
		Str("report_type", string(req.ReportType)).
		Int("records", len(req.Records)).
		Int("bytes", len(out)).
		Msg("report rendered")
	return out, nil
}

func (r *Renderer) render(ctx context.Context, req domain.ReportRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout := domain.BuildReportLayout(req)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCatalogSort(true)
	created := creationDate(req.Metadata)
	doc.SetCreationDate(created)
	doc.SetModificationDate(created)
	doc.SetCreator(r.opts.Creator, true)
	doc.SetTitle(layout.Title, true)

	family, tr, err := r.setupFont(doc)
	if err != nil {
		return nil, err
	}

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(family, "", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	doc.SetFont(family, "B", titleSize)
	doc.CellFormat(0, 10, tr(layout.Title), "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont(family, "", textSize)
	for _, m := range layout.Metadata {
		doc.CellFormat(0, 6, tr(m.Label+": "+m.Value), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	widths := columnWidths(doc, len(layout.Columns))
	drawHeader := func() {
		doc.SetFont(family, "B", headerSize)
		doc.SetFillColor(220, 230, 241)
		for i, col := range layout.Columns {
			doc.CellFormat(widths[i], rowHeight, tr(col), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont(family, "", headerSize)
	}
	drawHeader()

	_, pageHeight := doc.GetPageSize()
	_, _, _, bottom := doc.GetMargins()
	for _, row := range layout.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if doc.GetY()+rowHeight > pageHeight-bottom-10 {
			doc.AddPage()
			drawHeader()
		}
		for i, cell := range row {
			align := "L"
			if i == 0 {
				align = "C"
			}
			doc.CellFormat(widths[i], rowHeight, fit(doc, tr, cell, widths[i]), "1", 0, align, false, 0, "")
		}
		doc.Ln(-1)
	}

	if len(layout.Rows) == 0 {
		doc.SetFont(family, "I", textSize)
		doc.CellFormat(0, rowHeight, tr("No records."), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// setupFont registers the configured TTF, or falls back to the core font
// with a cp1252 translator.
func (r *Renderer) setupFont(doc *fpdf.Fpdf) (string, func(string) string, error) {
	if r.opts.FontPath == "" {
		return fontFamilyCore, doc.UnicodeTranslatorFromDescriptor(""), nil
	}

	data, err := os.ReadFile(r.opts.FontPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: font %s: %v", domain.ErrRenderingUnavailable, r.opts.FontPath, err)
	}
	for _, style := range []string{"", "B", "I"} {
		doc.AddUTF8FontFromBytes(fontFamilyUTF8, style, data)
	}
	if doc.Err() {
		return "", nil, fmt.Errorf("%w: font %s: %v", domain.ErrRenderingUnavailable, r.opts.FontPath, doc.Error())
	}
	return fontFamilyUTF8, func(s string) string { return s }, nil
}

// creationDate is the caller's generatedAt, or the Unix epoch when it is
// absent or not RFC3339. The document never carries the server clock.
func creationDate(md map[string]any) time.Time {
	if s, ok := md["generatedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

func columnWidths(doc *fpdf.Fpdf, n int) []float64 {
	if n == 0 {
		return nil
	}
	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	usable := pageWidth - left - right

	widths := make([]float64, n)
	widths[0] = orderWidth
	rest := (usable - orderWidth) / float64(n-1)
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}

// fit truncates s with an ellipsis so it fits inside a cell of width w.
// Widths are measured on the translated text the font actually draws.
func fit(doc *fpdf.Fpdf, tr func(string) string, s string, w float64) string {
	const padding = 2
	if doc.GetStringWidth(tr(s)) <= w-padding {
		return tr(s)
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := tr(string(runes) + "...")
		if doc.GetStringWidth(candidate) <= w-padding {
			return candidate
		}
	}
	return ""
}

func typeLabel(t domain.ReportType) string {
	switch t {
	case domain.ReportScholarship, domain.ReportAcademic, domain.ReportFeedback:
		return string(t)
	default:
		return "other"
	}
}
