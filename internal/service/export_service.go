package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type studentSource interface {
	FilteredStudents(ctx context.Context, ws *Workspace, app models.App, q ListQuery) ([]models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the filtered students view for download.
type ExportService struct {
	students studentSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(students studentSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Students exports every student matching q, across all pages.
func (s *ExportService) Students(ctx context.Context, ws *Workspace, app models.App, q ListQuery, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	students, err := s.students.FilteredStudents(ctx, ws, app, q)
	if err != nil {
		return nil, err
	}
	dataset := studentsDataset(students)

	var file ExportFile
	stamp := s.now().UTC().Format("20060102-150405")
	switch format {
	case FormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(dataset)
	default:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Filename = fmt.Sprintf("students-%s.%s", stamp, format)
	s.logger.Info("students exported", zap.String("session_id", ws.ID), zap.String("format", format), zap.Int("rows", len(students)))
	return &file, nil
}

func studentsDataset(students []models.Student) export.Dataset {
	ds := export.Dataset{
		Title:   "Students",
		Headers: []string{"Student ID", "Name", "Email", "Department", "Level", "Status"},
		Rows:    make([][]string, 0, len(students)),
	}
	for _, st := range students {
		ds.Rows = append(ds.Rows, []string{st.StudentID, st.Name, st.Email, st.Department, st.Level, st.Status})
	}
	return ds
}
