package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

// RosterCache is the cache surface the roster service needs.
type RosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RosterService assembles the per-class dashboard view: every student with
// attendance rate, average score and performance tier derived from the
// cached counters. Summaries are cached in Redis when a cache is wired;
// every write path that can move a counter invalidates the class key.
type RosterService struct {
	classes  classFinder
	students exportStudentStore
	cache    RosterCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRosterService constructs the roster service. cache may be nil, in which
// case every summary is computed from the database.
func NewRosterService(classes classFinder, students exportStudentStore, cache RosterCache, ttl time.Duration, logger *zap.Logger) *RosterService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		classes:  classes,
		students: students,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func rosterCacheKey(classID string) string {
	return fmt.Sprintf("roster:%s", classID)
}

// Summary returns the dashboard view of an owned class.
func (s *RosterService) Summary(ctx context.Context, professorID, classID string) (*models.RosterSummary, error) {
	class, err := ownedClass(ctx, s.classes, classID, professorID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached models.RosterSummary
		if err := s.cache.Get(ctx, rosterCacheKey(classID), &cached); err == nil {
			return &cached, nil
		}
	}

	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	summary := &models.RosterSummary{
		Class:    *class,
		Students: make([]models.RosterEntry, 0, len(students)),
	}
	for _, st := range students {
		summary.Students = append(summary.Students, models.RosterEntry{
			Student:       st,
			AttendancePct: st.AttendanceRate(),
			Average:       st.AverageScore(),
			Tier:          st.PerformanceTier(),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rosterCacheKey(classID), summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache roster summary", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return summary, nil
}

// InvalidateClass drops any cached summary for the class. Failures are
// logged and swallowed; the cache repopulates on the next read.
func (s *RosterService) InvalidateClass(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, rosterCacheKey(classID)+"*"); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("class_id", classID), zap.Error(err))
	}
}
