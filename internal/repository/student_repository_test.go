package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/coldcall/coldcall-api/internal/models"
)

func TestStudentCreateDefaultsSeating(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{ClassID: "class-1", USCID: "ABC123", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Create(context.Background(), student))
	require.NotEmpty(t, student.ID)
	require.Equal(t, models.SeatingNone, student.Seating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateBatchSingleTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	students := []models.Student{
		{ClassID: "class-1", USCID: "AAA1", FirstName: "Ada", LastName: "Lovelace"},
		{ClassID: "class-1", USCID: "BBB2", FirstName: "Ben", LastName: "Byte"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), students))
	require.NotEmpty(t, students[0].ID)
	require.Equal(t, models.SeatingNone, students[1].Seating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnError(errors.New("duplicate key value"))
	mock.ExpectRollback()

	students := []models.Student{
		{ClassID: "class-1", USCID: "AAA1", FirstName: "Ada", LastName: "Lovelace"},
		{ClassID: "class-1", USCID: "AAA1", FirstName: "Ada", LastName: "Lovelace"},
	}
	err := repo.CreateBatch(context.Background(), students)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateLeavesCountersAlone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(`UPDATE students SET class_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{ID: "s1", ClassID: "class-1", USCID: "ABC123", TotalCalls: 99}
	require.NoError(t, repo.Update(context.Background(), student))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListCallableFiltersDropped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE class_id = $1 AND dropped = false")).
		WithArgs("class-1").
		WillReturnRows(studentRows("s1", 2, 0, 10))

	students, err := repo.ListCallable(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "s1", students[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFindByUSCIDsScopedToProfessor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN classes c ON c.id = s.class_id")).
		WithArgs("prof-1", "ABC123", "DEF456").
		WillReturnRows(studentRows("s1", 0, 0, 0))

	students, err := repo.FindByUSCIDs(context.Background(), "prof-1", []string{"ABC123", "DEF456"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFindByUSCIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	students, err := repo.FindByUSCIDs(context.Background(), "prof-1", nil)
	require.NoError(t, err)
	require.Nil(t, students)
}

func TestStudentRecalcCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students s SET")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnRows(studentRows("s1", 4, 1, 22))

	student, err := repo.RecalcCounters(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 4, student.TotalCalls)
	require.Equal(t, 1, student.AbsentCalls)
	require.Equal(t, 22, student.TotalScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSetDropped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET dropped = $2")).
		WithArgs("s1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetDropped(context.Background(), "s1", true))
	require.NoError(t, mock.ExpectationsWereMet())
}
