package models

// ExportMode selects the row shape of an export.
type ExportMode string

const (
	// ExportModeSimple emits one row per student.
	ExportModeSimple ExportMode = "simple"
	// ExportModeRatings emits one row per (student, rating).
	ExportModeRatings ExportMode = "ratings"
	// ExportModeAll is a legacy alias for ExportModeRatings.
	ExportModeAll ExportMode = "all"
)

// RatingRows reports whether the mode exports rating history rows.
func (m ExportMode) RatingRows() bool {
	return m == ExportModeRatings || m == ExportModeAll
}

// Valid reports whether the mode is supported.
func (m ExportMode) Valid() bool {
	return m == ExportModeSimple || m.RatingRows()
}

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatTXT   ExportFormat = "txt"
	ExportFormatExcel ExportFormat = "excel"
)

// Extension returns the file extension for the format.
func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatTXT:
		return ".txt"
	case ExportFormatExcel:
		return ".xlsx"
	default:
		return ".csv"
	}
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatTXT:
		return "text/plain"
	case ExportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatTXT, ExportFormatExcel:
		return true
	default:
		return false
	}
}

// FileBlob is a generated download.
type FileBlob struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// ImportReport summarizes one roster import batch. Skipped rows and empty
// batches are reported here, never raised as errors.
type ImportReport struct {
	StudentsImported     int      `json:"students_imported"`
	StudentRowsSkipped   int      `json:"student_rows_skipped"`
	RatingsImported      int      `json:"ratings_imported"`
	RatingRowsSkipped    int      `json:"rating_rows_skipped"`
	StudentsRecalculated int      `json:"students_recalculated"`
	NothingImported      bool     `json:"nothing_imported"`
	Warnings             []string `json:"warnings,omitempty"`
}

// RosterEntry is one student's line in a class summary, with the derived
// performance figures computed from the cached counters.
type RosterEntry struct {
	Student
	AttendancePct float64 `json:"attendance_rate"`
	Average       float64 `json:"average_score"`
	Tier          string  `json:"performance_tier"`
}

// RosterSummary is the dashboard view of one class.
type RosterSummary struct {
	Class    Class         `json:"class"`
	Students []RosterEntry `json:"students"`
}
