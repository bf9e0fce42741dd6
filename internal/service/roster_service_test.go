package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type fakeCache struct {
	entries map[string][]byte
	hits    int
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	f.hits++
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deletes++
	f.entries = map[string][]byte{}
	return nil
}

func rosterFixtures() (*mockClassStore, *mockStudentStore) {
	classes := newMockClassStore(&models.Class{ID: "c1", ProfessorID: "prof-1", Name: "Contracts"})
	students := newMockStudentStore(classes,
		&models.Student{ID: "s1", ClassID: "c1", USCID: "AAA1", TotalCalls: 10, AbsentCalls: 0, TotalScore: 95},
		&models.Student{ID: "s2", ClassID: "c1", USCID: "BBB2", TotalCalls: 10, AbsentCalls: 2, TotalScore: 40},
		&models.Student{ID: "s3", ClassID: "c1", USCID: "CCC3"},
	)
	return classes, students
}

func TestRosterSummaryDerivedFields(t *testing.T) {
	classes, students := rosterFixtures()
	svc := NewRosterService(classes, students, nil, 0, nil)

	summary, err := svc.Summary(context.Background(), "prof-1", "c1")
	require.NoError(t, err)
	require.Len(t, summary.Students, 3)

	first := summary.Students[0]
	assert.Equal(t, 100.0, first.AttendancePct)
	assert.Equal(t, 9.5, first.Average)
	assert.Equal(t, models.TierExcellent, first.Tier)

	second := summary.Students[1]
	assert.Equal(t, 80.0, second.AttendancePct)
	assert.Equal(t, 5.0, second.Average)
	assert.Equal(t, models.TierGood, second.Tier)

	third := summary.Students[2]
	assert.Equal(t, 0.0, third.AttendancePct)
	assert.Equal(t, models.TierNeedsImprovement, third.Tier)
}

func TestRosterSummaryUsesCache(t *testing.T) {
	classes, students := rosterFixtures()
	cache := newFakeCache()
	svc := NewRosterService(classes, students, cache, time.Minute, nil)

	_, err := svc.Summary(context.Background(), "prof-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	_, err = svc.Summary(context.Background(), "prof-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.sets, "cache hit must not recompute")
}

func TestRosterInvalidateClearsCache(t *testing.T) {
	classes, students := rosterFixtures()
	cache := newFakeCache()
	svc := NewRosterService(classes, students, cache, time.Minute, nil)

	_, err := svc.Summary(context.Background(), "prof-1", "c1")
	require.NoError(t, err)

	svc.InvalidateClass(context.Background(), "c1")
	assert.Equal(t, 1, cache.deletes)

	_, err = svc.Summary(context.Background(), "prof-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets, "invalidation must force a recompute")
}

func TestRosterSummaryOwnership(t *testing.T) {
	classes, students := rosterFixtures()
	svc := NewRosterService(classes, students, nil, 0, nil)

	_, err := svc.Summary(context.Background(), "prof-2", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
