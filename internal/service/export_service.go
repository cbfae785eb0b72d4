package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
	"github.com/jaseeljazc/campuss-atd/pkg/export"
	"github.com/jaseeljazc/campuss-atd/pkg/storage"
)

// ExportResult is a rendered document plus its archived download token.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
	Token       string
}

// ExportService renders analytics views as downloadable documents. Rendered
// files are archived on disk so the signed-token download path can re-serve
// them without recomputing.
type ExportService struct {
	stats    *StatsService
	calendar *CalendarService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	archive  *storage.ExportArchive
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Archive and signer may be nil;
// exports then stream without a reusable download link.
func NewExportService(stats *StatsService, calendar *CalendarService, archive *storage.ExportArchive, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		stats:    stats,
		calendar: calendar,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		archive:  archive,
		signer:   signer,
		logger:   logger,
	}
}

// LowAttendanceCSV renders the low-attendance list as CSV.
func (s *ExportService) LowAttendanceCSV(ctx context.Context, semester int, threshold float64) (*ExportResult, error) {
	rows, err := s.stats.LowAttendance(ctx, semester, threshold)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Roll Number", "Name", "Email", "Total Days", "Present Days", "Absent Days", "Percentage"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Roll Number":  row.RollNumber,
			"Name":         row.FullName,
			"Email":        row.Email,
			"Total Days":   strconv.Itoa(row.TotalDays),
			"Present Days": strconv.Itoa(row.PresentDays),
			"Absent Days":  strconv.Itoa(row.AbsentDays),
			"Percentage":   fmt.Sprintf("%.2f", row.Percentage),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("low-attendance-semester-%d.csv", semester)
	return s.finish(payload, filename, "text/csv"), nil
}

// StudentReportPDF renders one student's calendar and statistics as a PDF.
func (s *ExportService) StudentReportPDF(ctx context.Context, studentID string, semester int) (*ExportResult, error) {
	calendar, err := s.calendar.BuildCalendar(ctx, studentID, semester, nil, nil)
	if err != nil {
		return nil, err
	}
	report, err := s.stats.StudentReport(ctx, studentID, models.AttendanceFilter{Semester: &semester})
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Status", "Periods Present"},
	}
	for _, day := range calendar.Days {
		present := 0
		for _, mark := range day.Periods {
			if mark.Status == models.EntryStatusPresent {
				present++
			}
		}
		row := map[string]string{
			"Date":   day.Date.String(),
			"Status": string(day.Status),
		}
		if len(day.Periods) > 0 {
			row["Periods Present"] = fmt.Sprintf("%d/%d", present, models.PeriodsPerDay)
		} else {
			row["Periods Present"] = "-"
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	title := fmt.Sprintf("Attendance Report - %s - Semester %d", report.Student.FullName, semester)
	if stats, ok := report.Statistics[semester]; ok {
		title = fmt.Sprintf("%s (%.2f%%)", title, stats.Percentage)
	}

	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	filename := fmt.Sprintf("attendance-%s-semester-%d.pdf", report.Student.ID, semester)
	return s.finish(payload, filename, "application/pdf"), nil
}

// Download re-serves an archived export referenced by a signed token.
func (s *ExportService) Download(token string) (*ExportResult, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export archive is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is invalid or expired")
	}
	payload, err := s.archive.Read(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(relPath, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(relPath, ".pdf"):
		contentType = "application/pdf"
	}
	return &ExportResult{Payload: payload, Filename: path.Base(relPath), ContentType: contentType}, nil
}

// finish archives the rendered document and attaches a signed download token.
// Archive failures only cost the reusable link, never the response.
func (s *ExportService) finish(payload []byte, filename, contentType string) *ExportResult {
	result := &ExportResult{Payload: payload, Filename: filename, ContentType: contentType}
	if s.archive == nil || s.signer == nil {
		return result
	}

	exportID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s", exportID, filename)
	if _, err := s.archive.Save(relPath, payload); err != nil {
		s.logger.Warn("failed to archive export", zap.String("file", filename), zap.Error(err))
		return result
	}
	token, _, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		s.logger.Warn("failed to sign export link", zap.String("file", filename), zap.Error(err))
		return result
	}
	result.Token = token
	return result
}
