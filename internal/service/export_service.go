package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/export"
)

var (
	simpleExportHeaders = []string{"usc_id", "email", "first_name", "last_name", "seating",
		"total_calls", "absent_calls", "total_score", "class_id"}
	ratingExportHeaders = []string{"usc_id", "date", "attendance", "prepared", "score", "class_id"}
)

const exportDateLayout = "2006-01-02T15:04:05"

type tabularRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type reportRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type ratingHistory interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Rating, error)
}

// ExportService renders class data into downloadable files. One class yields
// a single file, several classes a zip bundle; both are built fully in
// memory and handed back as blobs.
type ExportService struct {
	classes  classFinder
	students exportStudentStore
	ratings  ratingHistory
	csv      tabularRenderer
	xlsx     tabularRenderer
	pdf      reportRenderer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExportService constructs the export service. Renderers may be nil and
// default to the package implementations.
func NewExportService(classes classFinder, students exportStudentStore, ratings ratingHistory, csv, xlsx tabularRenderer, pdf reportRenderer, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		classes:  classes,
		students: students,
		ratings:  ratings,
		csv:      csv,
		xlsx:     xlsx,
		pdf:      pdf,
		metrics:  metrics,
		logger:   logger,
	}
}

// ExportClasses renders the requested classes in the given mode and format.
// Every class must belong to the professor; a single denied class fails the
// whole request and nothing is returned.
func (s *ExportService) ExportClasses(ctx context.Context, professorID string, classIDs []string, mode models.ExportMode, format models.ExportFormat) (*models.FileBlob, error) {
	if len(classIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no classes selected")
	}
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export mode %q", mode))
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	type renderedClass struct {
		name string
		data []byte
	}
	files := make([]renderedClass, 0, len(classIDs))
	stamp := time.Now().UTC().Format("20060102")

	for _, classID := range classIDs {
		class, err := ownedClass(ctx, s.classes, classID, professorID)
		if err != nil {
			return nil, err
		}
		dataset, err := s.buildDataset(ctx, class, mode)
		if err != nil {
			return nil, err
		}
		payload, err := s.render(dataset, format)
		if err != nil {
			return nil, err
		}
		suffix := ""
		if mode.RatingRows() {
			suffix = "_ratings"
		}
		name := fmt.Sprintf("%s_%s%s%s", sanitizeFilename(class.Name), stamp, suffix, format.Extension())
		files = append(files, renderedClass{name: name, data: payload})
	}

	s.metrics.RecordExport(string(format))

	if len(files) == 1 {
		return &models.FileBlob{
			Filename:    files[0].name,
			ContentType: format.ContentType(),
			Data:        files[0].data,
		}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build export bundle")
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build export bundle")
		}
	}
	if err := zw.Close(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize export bundle")
	}
	return &models.FileBlob{
		Filename:    fmt.Sprintf("class_exports_%s.zip", stamp),
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

// StudentReport renders one student's call history as a PDF summary sheet.
func (s *ExportService) StudentReport(ctx context.Context, professorID, studentID string) (*models.FileBlob, error) {
	student, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Present", "Prepared", "Score"},
		Records: make([][]string, 0, len(ratings)),
	}
	for _, r := range ratings {
		dataset.Records = append(dataset.Records, []string{
			r.Date.UTC().Format(exportDateLayout),
			formatBool(r.Attendance),
			formatBool(r.Prepared),
			strconv.Itoa(r.Score),
		})
	}
	title := fmt.Sprintf("%s %s (%s) - attendance %.2f%%, average %.2f",
		student.FirstName, student.LastName, student.USCID,
		student.AttendanceRate(), student.AverageScore())

	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &models.FileBlob{
		Filename:    fmt.Sprintf("%s_report_%s.pdf", sanitizeFilename(student.USCID), time.Now().UTC().Format("20060102")),
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, class *models.Class, mode models.ExportMode) (export.Dataset, error) {
	students, err := s.students.ListByClass(ctx, class.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	if !mode.RatingRows() {
		dataset := export.Dataset{Headers: simpleExportHeaders, Records: make([][]string, 0, len(students))}
		for _, st := range students {
			dataset.Records = append(dataset.Records, []string{
				st.USCID,
				st.Email,
				st.FirstName,
				st.LastName,
				string(st.Seating),
				strconv.Itoa(st.TotalCalls),
				strconv.Itoa(st.AbsentCalls),
				strconv.Itoa(st.TotalScore),
				st.ClassID,
			})
		}
		return dataset, nil
	}

	dataset := export.Dataset{Headers: ratingExportHeaders}
	for _, st := range students {
		ratings, err := s.ratings.ListByStudent(ctx, st.ID)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
		}
		for _, r := range ratings {
			dataset.Records = append(dataset.Records, []string{
				st.USCID,
				r.Date.UTC().Format(exportDateLayout),
				formatBool(r.Attendance),
				formatBool(r.Prepared),
				strconv.Itoa(r.Score),
				st.ClassID,
			})
		}
	}
	return dataset, nil
}

func (s *ExportService) render(dataset export.Dataset, format models.ExportFormat) ([]byte, error) {
	var renderer tabularRenderer
	if format == models.ExportFormatExcel {
		renderer = s.xlsx
	} else {
		renderer = s.csv
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return payload, nil
}

func formatBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// sanitizeFilename keeps letters, digits, dashes and underscores; anything
// else becomes an underscore.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "class"
	}
	return b.String()
}
