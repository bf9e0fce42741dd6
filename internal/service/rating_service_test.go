package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

func ratingFixtures() (*mockClassStore, *mockStudentStore, *mockRatingStore) {
	classes := newMockClassStore(
		&models.Class{ID: "c1", ProfessorID: "prof-1", Name: "Contracts"},
		&models.Class{ID: "c2", ProfessorID: "prof-2", Name: "Torts"},
	)
	students := newMockStudentStore(classes,
		&models.Student{ID: "s1", ClassID: "c1", USCID: "ABC123"},
		&models.Student{ID: "s2", ClassID: "c2", USCID: "XYZ789"},
	)
	ratings := newMockRatingStore(students)
	return classes, students, ratings
}

func TestRecordCallUpdatesCounters(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	invalidator := &mockInvalidator{}
	svc := NewRatingService(ratings, students, students, classes, invalidator, nil, nil, nil)

	_, student, err := svc.RecordCall(context.Background(), "prof-1", "s1", RecordCallRequest{Present: boolPtr(true), Prepared: boolPtr(true), Score: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, 1, student.TotalCalls)
	assert.Equal(t, 0, student.AbsentCalls)
	assert.Equal(t, 8, student.TotalScore)

	_, student, err = svc.RecordCall(context.Background(), "prof-1", "s1", RecordCallRequest{Present: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 2, student.TotalCalls)
	assert.Equal(t, 1, student.AbsentCalls)
	assert.Equal(t, 8, student.TotalScore, "absent calls must not add score")
	assert.Contains(t, invalidator.invalidated, "c1")
}

func TestRecordCallDefaults(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	rating, student, err := svc.RecordCall(context.Background(), "prof-1", "s1", RecordCallRequest{})
	require.NoError(t, err)
	assert.True(t, rating.Attendance)
	assert.True(t, rating.Prepared)
	assert.Equal(t, 5, rating.Score)
	assert.Equal(t, 5, student.TotalScore)
}

func TestRecordCallForeignStudentForbidden(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	_, _, err := svc.RecordCall(context.Background(), "prof-1", "s2", RecordCallRequest{Present: boolPtr(true)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, ratings.ratings, "nothing may persist on a denied call")
}

func TestRecordCallUnknownStudentNotFound(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	_, _, err := svc.RecordCall(context.Background(), "prof-1", "missing", RecordCallRequest{Present: boolPtr(true)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEditRatingRecomputes(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	rating, _, err := svc.RecordCall(context.Background(), "prof-1", "s1", RecordCallRequest{Present: boolPtr(true), Score: intPtr(3)})
	require.NoError(t, err)

	_, student, err := svc.EditRating(context.Background(), "prof-1", rating.ID, EditRatingRequest{Present: true, Prepared: true, Score: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, student.TotalCalls)
	assert.Equal(t, 9, student.TotalScore)
}

func TestRecalcAllIdempotent(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	_, _, err := svc.RecordCall(context.Background(), "prof-1", "s1", RecordCallRequest{Present: boolPtr(true), Score: intPtr(5), At: timePtr(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))})
	require.NoError(t, err)

	first, err := svc.RecalcAll(context.Background(), "prof-1", "s1")
	require.NoError(t, err)
	second, err := svc.RecalcAll(context.Background(), "prof-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, first.TotalCalls, second.TotalCalls)
	assert.Equal(t, first.AbsentCalls, second.AbsentCalls)
	assert.Equal(t, first.TotalScore, second.TotalScore)
}

func TestHistoryDerivedMetrics(t *testing.T) {
	classes, students, ratings := ratingFixtures()
	svc := NewRatingService(ratings, students, students, classes, nil, nil, nil, nil)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, req := range []RecordCallRequest{
		{Present: boolPtr(true), Score: intPtr(10)},
		{Present: boolPtr(true), Score: intPtr(6)},
		{Present: boolPtr(false)},
	} {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		req.At = &at
		_, _, err := svc.RecordCall(context.Background(), "prof-1", "s1", req)
		require.NoError(t, err)
	}

	entry, history, err := svc.History(context.Background(), "prof-1", "s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Date.Before(history[2].Date))
	assert.Equal(t, 66.67, entry.AttendancePct)
	assert.Equal(t, 8.0, entry.Average)
	assert.Equal(t, models.TierNeedsImprovement, entry.Tier)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}
