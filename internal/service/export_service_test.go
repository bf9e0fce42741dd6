package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

func exportFixtures() (*mockClassStore, *mockStudentStore, *mockRatingStore, *ExportService) {
	classes := newMockClassStore(
		&models.Class{ID: "c1", ProfessorID: "prof-1", Name: "Contracts I"},
		&models.Class{ID: "c2", ProfessorID: "prof-1", Name: "Torts"},
		&models.Class{ID: "c3", ProfessorID: "prof-2", Name: "Evidence"},
	)
	students := newMockStudentStore(classes,
		&models.Student{ID: "s1", ClassID: "c1", USCID: "AAA1", FirstName: "Ada", LastName: "Lovelace", Seating: models.SeatingFrontRight, TotalCalls: 3, AbsentCalls: 1, TotalScore: 12},
		&models.Student{ID: "s2", ClassID: "c1", USCID: "BBB2", FirstName: "Ben", LastName: "Byte", Seating: models.SeatingNone},
		&models.Student{ID: "s3", ClassID: "c2", USCID: "CCC3", FirstName: "Cy", LastName: "Cone", Seating: models.SeatingBackMiddle},
	)
	ratings := newMockRatingStore(students)
	svc := NewExportService(classes, students, ratings, nil, nil, nil, nil, nil)
	return classes, students, ratings, svc
}

func TestExportSimpleSingleClass(t *testing.T) {
	_, _, _, svc := exportFixtures()

	blob, err := svc.ExportClasses(context.Background(), "prof-1", []string{"c1"}, models.ExportModeSimple, models.ExportFormatCSV)
	require.NoError(t, err)

	stamp := time.Now().UTC().Format("20060102")
	assert.Equal(t, fmt.Sprintf("Contracts_I_%s.csv", stamp), blob.Filename)
	assert.Equal(t, "text/csv", blob.ContentType)

	lines := strings.Split(strings.TrimSpace(string(blob.Data)), "\n")
	require.Len(t, lines, 3, "header plus one row per student")
	assert.Equal(t, "usc_id,email,first_name,last_name,seating,total_calls,absent_calls,total_score,class_id", lines[0])
	assert.Contains(t, lines[1], "AAA1")
	assert.Contains(t, lines[1], "FR")
}

func TestExportRatingsMode(t *testing.T) {
	_, _, ratings, svc := exportFixtures()
	date := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	ratings.ratings["r1"] = &models.Rating{ID: "r1", StudentID: "s1", ClassID: "c1", Date: date, Attendance: true, Prepared: false, Score: 7}

	blob, err := svc.ExportClasses(context.Background(), "prof-1", []string{"c1"}, models.ExportModeRatings, models.ExportFormatCSV)
	require.NoError(t, err)

	assert.Contains(t, blob.Filename, "_ratings.csv")
	lines := strings.Split(strings.TrimSpace(string(blob.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "usc_id,date,attendance,prepared,score,class_id", lines[0])
	assert.Equal(t, "AAA1,2026-03-02T14:30:00,TRUE,FALSE,7,c1", lines[1])
}

func TestExportMultiClassZip(t *testing.T) {
	_, _, _, svc := exportFixtures()

	blob, err := svc.ExportClasses(context.Background(), "prof-1", []string{"c1", "c2"}, models.ExportModeSimple, models.ExportFormatCSV)
	require.NoError(t, err)

	stamp := time.Now().UTC().Format("20060102")
	assert.Equal(t, fmt.Sprintf("class_exports_%s.zip", stamp), blob.Filename)
	assert.Equal(t, "application/zip", blob.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(blob.Data), int64(len(blob.Data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	names := []string{zr.File[0].Name, zr.File[1].Name}
	assert.Contains(t, names, fmt.Sprintf("Contracts_I_%s.csv", stamp))
	assert.Contains(t, names, fmt.Sprintf("Torts_%s.csv", stamp))
}

func TestExportForeignClassFailsWhole(t *testing.T) {
	_, _, _, svc := exportFixtures()

	_, err := svc.ExportClasses(context.Background(), "prof-1", []string{"c1", "c3"}, models.ExportModeSimple, models.ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportValidation(t *testing.T) {
	_, _, _, svc := exportFixtures()

	_, err := svc.ExportClasses(context.Background(), "prof-1", nil, models.ExportModeSimple, models.ExportFormatCSV)
	require.Error(t, err)

	_, err = svc.ExportClasses(context.Background(), "prof-1", []string{"c1"}, models.ExportMode("weird"), models.ExportFormatCSV)
	require.Error(t, err)

	_, err = svc.ExportClasses(context.Background(), "prof-1", []string{"c1"}, models.ExportModeSimple, models.ExportFormat("docx"))
	require.Error(t, err)
}

func TestExportTxtSharesCSVShape(t *testing.T) {
	_, _, _, svc := exportFixtures()

	blob, err := svc.ExportClasses(context.Background(), "prof-1", []string{"c2"}, models.ExportModeSimple, models.ExportFormatTXT)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(blob.Filename, ".txt"))
	assert.Equal(t, "text/plain", blob.ContentType)
	assert.True(t, strings.HasPrefix(string(blob.Data), "usc_id,"))
}

func TestStudentReportPDF(t *testing.T) {
	_, _, ratings, svc := exportFixtures()
	ratings.ratings["r1"] = &models.Rating{ID: "r1", StudentID: "s1", ClassID: "c1", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Attendance: true, Score: 7}

	blob, err := svc.StudentReport(context.Background(), "prof-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.True(t, strings.HasPrefix(blob.Filename, "AAA1_report_"))
	assert.True(t, bytes.HasPrefix(blob.Data, []byte("%PDF")))
}
