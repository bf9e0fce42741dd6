package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type importStudentStore interface {
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	FindByUSCIDs(ctx context.Context, professorID string, uscIDs []string) ([]models.Student, error)
	RecalcCounters(ctx context.Context, studentID string) (*models.Student, error)
}

type ratingUpserter interface {
	BulkUpsert(ctx context.Context, ratings []models.Rating) error
}

// default column orders used when a file arrives without a header row.
var (
	defaultStudentColumns = []string{"usc_id", "email", "first_name", "last_name", "seating",
		"total_calls", "absent_calls", "total_score", "class_id"}
	defaultRatingColumns = []string{"usc_id", "date", "attendance", "prepared", "score", "class_id"}
)

// importDateLayouts are tried in order when parsing rating dates.
var importDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ImportService reconciles uploaded roster and rating files against the
// database. Malformed rows are skipped and reported, never fatal; only
// infrastructure failures surface as errors.
type ImportService struct {
	students importStudentStore
	ratings  ratingUpserter
	classes  classFinder
	roster   rosterInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(students importStudentStore, ratings ratingUpserter, classes classFinder, roster rosterInvalidator, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		students: students,
		ratings:  ratings,
		classes:  classes,
		roster:   roster,
		metrics:  metrics,
		logger:   logger,
	}
}

// ImportRoster ingests an optional student file and an optional rating file
// into an owned class. Students are matched by usc_id across the professor's
// whole pool: known ids update in place, unknown ids create new records.
// Rating rows upsert on (student, date) in one transaction, then each
// affected student's counters are rebuilt exactly once.
func (s *ImportService) ImportRoster(ctx context.Context, professorID, classID string, students, ratings io.Reader) (*models.ImportReport, error) {
	if _, err := ownedClass(ctx, s.classes, classID, professorID); err != nil {
		return nil, err
	}

	report := &models.ImportReport{}
	touched := map[string]string{} // student id -> class id, for cache invalidation
	vacated := map[string]bool{}   // classes students were re-parented out of

	if students != nil {
		if err := s.importStudents(ctx, professorID, classID, students, report, vacated); err != nil {
			return nil, err
		}
	}
	if ratings != nil {
		if err := s.importRatings(ctx, professorID, ratings, report, touched); err != nil {
			return nil, err
		}
	}

	report.NothingImported = report.StudentsImported == 0 && report.RatingsImported == 0

	s.metrics.RecordImportRows("student", "imported", report.StudentsImported)
	s.metrics.RecordImportRows("student", "skipped", report.StudentRowsSkipped)
	s.metrics.RecordImportRows("rating", "imported", report.RatingsImported)
	s.metrics.RecordImportRows("rating", "skipped", report.RatingRowsSkipped)

	if s.roster != nil {
		s.roster.InvalidateClass(ctx, classID)
		seen := map[string]bool{classID: true}
		for _, cid := range touched {
			if !seen[cid] {
				seen[cid] = true
				s.roster.InvalidateClass(ctx, cid)
			}
		}
		for cid := range vacated {
			if !seen[cid] {
				seen[cid] = true
				s.roster.InvalidateClass(ctx, cid)
			}
		}
	}
	s.logger.Info("roster import finished",
		zap.String("class_id", classID),
		zap.Int("students_imported", report.StudentsImported),
		zap.Int("ratings_imported", report.RatingsImported),
		zap.Int("students_recalculated", report.StudentsRecalculated),
	)
	return report, nil
}

func (s *ImportService) importStudents(ctx context.Context, professorID, classID string, src io.Reader, report *models.ImportReport, vacated map[string]bool) error {
	rows, cols, err := readTable(src, defaultStudentColumns)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable student file")
	}
	if len(rows) == 0 {
		return nil
	}

	// Resolve every usc_id in one round trip before writing anything.
	ids := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		id := normalizeUSCID(cell(row, cols, "usc_id"))
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	existing, err := s.students.FindByUSCIDs(ctx, professorID, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	byUSCID := make(map[string]*models.Student, len(existing))
	for i := range existing {
		byUSCID[existing[i].USCID] = &existing[i]
	}

	// Class re-targeting is honored only for classes the professor owns.
	ownedTargets := map[string]bool{classID: true}

	for _, row := range rows {
		uscID := normalizeUSCID(cell(row, cols, "usc_id"))
		first := strings.TrimSpace(cell(row, cols, "first_name"))
		last := strings.TrimSpace(cell(row, cols, "last_name"))
		if uscID == "" || first == "" || last == "" || len(uscID) > uscIDMaxLen {
			report.StudentRowsSkipped++
			continue
		}

		target := classID
		if cid := strings.TrimSpace(cell(row, cols, "class_id")); cid != "" {
			if _, ok := ownedTargets[cid]; !ok {
				_, err := ownedClass(ctx, s.classes, cid, professorID)
				ownedTargets[cid] = err == nil
			}
			if ownedTargets[cid] {
				target = cid
			}
		}

		if student, ok := byUSCID[uscID]; ok {
			if student.ClassID != target {
				// The class the student leaves needs its cached
				// summary dropped too.
				vacated[student.ClassID] = true
			}
			student.Email = strings.TrimSpace(cell(row, cols, "email"))
			student.FirstName = first
			student.LastName = last
			student.Seating = models.ParseSeating(cell(row, cols, "seating"))
			student.ClassID = target
			if err := s.students.Update(ctx, student); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
			}
		} else {
			student := &models.Student{
				ClassID:     target,
				USCID:       uscID,
				Email:       strings.TrimSpace(cell(row, cols, "email")),
				FirstName:   first,
				LastName:    last,
				Seating:     models.ParseSeating(cell(row, cols, "seating")),
				TotalCalls:  parseCount(cell(row, cols, "total_calls")),
				AbsentCalls: parseCount(cell(row, cols, "absent_calls")),
				TotalScore:  parseCount(cell(row, cols, "total_score")),
			}
			if err := s.students.Create(ctx, student); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
			}
			byUSCID[uscID] = student
		}
		report.StudentsImported++
	}
	return nil
}

func (s *ImportService) importRatings(ctx context.Context, professorID string, src io.Reader, report *models.ImportReport, touched map[string]string) error {
	rows, cols, err := readTable(src, defaultRatingColumns)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable rating file")
	}
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		id := normalizeUSCID(cell(row, cols, "usc_id"))
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	students, err := s.students.FindByUSCIDs(ctx, professorID, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	byUSCID := make(map[string]*models.Student, len(students))
	for i := range students {
		byUSCID[students[i].USCID] = &students[i]
	}

	batch := make([]models.Rating, 0, len(rows))
	for _, row := range rows {
		student, ok := byUSCID[normalizeUSCID(cell(row, cols, "usc_id"))]
		if !ok {
			report.RatingRowsSkipped++
			continue
		}
		date, ok := parseImportDate(cell(row, cols, "date"))
		if !ok {
			report.RatingRowsSkipped++
			continue
		}
		batch = append(batch, models.Rating{
			StudentID:  student.ID,
			ClassID:    student.ClassID,
			Date:       date,
			Attendance: parseFlag(cell(row, cols, "attendance"), true),
			Prepared:   parseFlag(cell(row, cols, "prepared"), false),
			Score:      parseCount(cell(row, cols, "score")),
		})
		touched[student.ID] = student.ClassID
	}
	if len(batch) == 0 {
		return nil
	}

	if err := s.ratings.BulkUpsert(ctx, batch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store ratings")
	}
	report.RatingsImported = len(batch)

	for studentID := range touched {
		if _, err := s.students.RecalcCounters(ctx, studentID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recalculate counters")
		}
		report.StudentsRecalculated++
	}
	return nil
}

// readTable parses a CSV stream into rows plus a column index. A header row
// is recognized when the first cell is "usc_id" or any cell is "first_name";
// headerless files fall back to the given positional order.
func readTable(src io.Reader, fallback []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	records = dropEmptyRows(records)
	if len(records) == 0 {
		return nil, nil, nil
	}

	cols := map[string]int{}
	if isHeaderRow(records[0]) {
		for i, name := range records[0] {
			cols[strings.ToLower(strings.TrimSpace(name))] = i
		}
		records = records[1:]
	} else {
		for i, name := range fallback {
			cols[name] = i
		}
	}
	return records, cols, nil
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(row[0]), "usc_id") {
		return true
	}
	for _, c := range row {
		if strings.EqualFold(strings.TrimSpace(c), "first_name") {
			return true
		}
	}
	return false
}

func dropEmptyRows(records [][]string) [][]string {
	out := records[:0]
	for _, row := range records {
		empty := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func normalizeUSCID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseFlag treats only TRUE (any case) as true. Empty cells take the column
// default; every other token is false.
func parseFlag(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	return strings.EqualFold(raw, "TRUE")
}

func parseImportDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
