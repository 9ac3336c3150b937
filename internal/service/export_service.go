package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/models"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
	"github.com/emrs-app/exam-timetable-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(records interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type timetableDetailer interface {
	Get(ctx context.Context, id string) (*models.TimetableDetail, bool, error)
}

// ExportResult is a rendered timetable document.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// examSlotRow is one line of a timetable export.
type examSlotRow struct {
	Date       string `csv:"Date"`
	Day        string `csv:"Day"`
	TimeSlot   string `csv:"Time"`
	CourseCode string `csv:"Course Code"`
	Course     string `csv:"Course Title"`
	Department string `csv:"Department"`
	Level      int    `csv:"Level"`
}

var exportHeaders = []string{"Date", "Day", "Time", "Course Code", "Course Title", "Department", "Level"}

// ExportService renders timetables as CSV or PDF documents.
type ExportService struct {
	timetables timetableDetailer
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableDetailer, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{timetables: timetables, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the exam slots of a timetable in the requested format. Empty format means CSV.
func (s *ExportService) Export(ctx context.Context, timetableID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	detail, _, err := s.timetables.Get(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	rows := buildExportRows(detail.ExamSlots)

	var payload []byte
	contentType := "text/csv"
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(rows)
	case ExportFormatPDF:
		contentType = "application/pdf"
		subtitle := fmt.Sprintf("%s - %s", detail.StartDate.Format("02 Jan 2006"), detail.EndDate.Format("02 Jan 2006"))
		payload, err = s.pdf.Render(rowsToDataset(rows), detail.Title, subtitle)
	}
	if err != nil {
		s.logger.Error("timetable export failed", zap.String("timetable_id", timetableID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("%s.%s", sanitizeFilename(detail.Title), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildExportRows(slots []models.ExamSlotDetail) []examSlotRow {
	rows := make([]examSlotRow, 0, len(slots))
	for _, slot := range slots {
		label := slot.TimeSlotLabel
		if label == "" {
			label = slot.TimeSlot
		}
		rows = append(rows, examSlotRow{
			Date:       slot.Date.Format("2006-01-02"),
			Day:        slot.Date.Weekday().String(),
			TimeSlot:   label,
			CourseCode: slot.CourseCode,
			Course:     slot.CourseTitle,
			Department: slot.DepartmentName,
			Level:      slot.Level,
		})
	}
	return rows
}

func rowsToDataset(rows []examSlotRow) export.Dataset {
	data := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Date":         r.Date,
			"Day":          r.Day,
			"Time":         r.TimeSlot,
			"Course Code":  r.CourseCode,
			"Course Title": r.Course,
			"Department":   r.Department,
			"Level":        strconv.Itoa(r.Level),
		})
	}
	return data
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "timetable"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(strings.ToLower(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
