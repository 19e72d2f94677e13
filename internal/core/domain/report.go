package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ReportType selects the columns and derived fields of a generated report.
type ReportType string

const (
	ReportScholarship ReportType = "scholarship"
	ReportAcademic    ReportType = "academic"
	ReportFeedback    ReportType = "feedback"
)

const (
	StatusActive = "Active"

	EligibleLabel    = "Eligible"
	NotEligibleLabel = "Not Eligible"

	StandingExcellent = "Excellent"
	StandingGood      = "Good"
	StandingFair      = "Fair"

	AttendanceActive   = "95%"
	AttendanceInactive = "70%"
)

// ReportRequest is the caller-supplied input of a report. Records are flat
// JSON objects, typically rows of the staff records table.
type ReportRequest struct {
	ReportType ReportType       `json:"reportType"`
	Records    []map[string]any `json:"records"`
	Metadata   map[string]any   `json:"metadata"`
}

// MetadataLine is one "label: value" entry printed above the table.
type MetadataLine struct {
	Label string
	Value string
}

// ReportLayout is the fully derived, render-ready content of a report.
type ReportLayout struct {
	Title    string
	Metadata []MetadataLine
	Columns  []string
	Rows     [][]string
}

var metadataLabels = []struct{ key, label string }{
	{"reportName", "Report Name"},
	{"academicYear", "Academic Year"},
	{"semester", "Semester"},
	{"generatedBy", "Generated By"},
	{"generatedAt", "Generated At"},
}

// BuildReportLayout derives the title, columns and cell values for req.
// It has no side effects; identical requests yield identical layouts.
func BuildReportLayout(req ReportRequest) ReportLayout {
	layout := ReportLayout{}

	for _, m := range metadataLabels {
		if v := metadataString(req.Metadata, m.key); v != "" {
			layout.Metadata = append(layout.Metadata, MetadataLine{Label: m.label, Value: v})
		}
	}

	switch req.ReportType {
	case ReportScholarship:
		layout.Title = "Scholarship Report"
		layout.Columns = []string{"No.", "Student ID", "Name", "Major", "GPA", "Status", "Eligibility"}
	case ReportAcademic:
		layout.Title = "Academic Performance Report"
		layout.Columns = []string{"No.", "Student ID", "Name", "Major", "GPA", "Conduct Score", "Standing"}
	case ReportFeedback:
		layout.Title = "Feedback Report"
		layout.Columns = []string{"No.", "Student ID", "Name", "Major", "Status", "Attendance"}
	default:
		layout.Title = "Report"
		layout.Columns = []string{"No.", "Student ID", "Name", "Major", "Status"}
	}

	layout.Rows = make([][]string, 0, len(req.Records))
	for i, rec := range req.Records {
		layout.Rows = append(layout.Rows, buildRow(req.ReportType, i+1, rec))
	}
	return layout
}

func buildRow(t ReportType, n int, rec map[string]any) []string {
	order := recordString(rec, "order")
	if order == "" {
		order = strconv.Itoa(n)
	}
	id := recordString(rec, "studentId", "student_id", "id")
	name := recordString(rec, "name")
	major := recordString(rec, "major")
	status := recordString(rec, "status")

	switch t {
	case ReportScholarship:
		return []string{order, id, name, major, formatGPA(rec), status, Eligibility(status)}
	case ReportAcademic:
		gpa := GPA(rec)
		return []string{order, id, name, major, formatGPA(rec), strconv.Itoa(ConductScore(gpa)), Standing(gpa)}
	case ReportFeedback:
		return []string{order, id, name, major, status, Attendance(status)}
	default:
		return []string{order, id, name, major, status}
	}
}

// Eligibility maps a record status to the scholarship eligibility label.
func Eligibility(status string) string {
	if status == StatusActive {
		return EligibleLabel
	}
	return NotEligibleLabel
}

// ConductScore is round(gpa * 25).
func ConductScore(gpa float64) int {
	return int(math.Round(gpa * 25))
}

// Standing buckets a GPA: ≥3.5 excellent, ≥3.0 good, otherwise fair.
func Standing(gpa float64) string {
	switch {
	case gpa >= 3.5:
		return StandingExcellent
	case gpa >= 3.0:
		return StandingGood
	default:
		return StandingFair
	}
}

// Attendance maps a record status to the feedback attendance percentage.
func Attendance(status string) string {
	if status == StatusActive {
		return AttendanceActive
	}
	return AttendanceInactive
}

// GPA reads the "gpa" field as a number. Fixtures store it as a string
// ("3.85"); unparseable or missing values count as 0.
func GPA(rec map[string]any) float64 {
	switch v := rec["gpa"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func formatGPA(rec map[string]any) string {
	if _, ok := rec["gpa"]; !ok {
		return ""
	}
	return strconv.FormatFloat(GPA(rec), 'f', 2, 64)
}

func recordString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func metadataString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	return recordString(md, key)
}
