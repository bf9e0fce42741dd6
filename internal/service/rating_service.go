package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type ratingRepository interface {
	CreateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error)
	UpdateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Rating, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Rating, error)
}

type counterRecalculator interface {
	RecalcCounters(ctx context.Context, studentID string) (*models.Student, error)
}

type rosterInvalidator interface {
	InvalidateClass(ctx context.Context, classID string)
}

// RecordCallRequest captures one cold-call outcome. Omitted fields take the
// usual in-class defaults: present, prepared, score 5.
type RecordCallRequest struct {
	Present  *bool      `json:"present"`
	Prepared *bool      `json:"prepared"`
	Score    *int       `json:"score"`
	At       *time.Time `json:"at"`
}

func (r RecordCallRequest) present() bool {
	if r.Present == nil {
		return true
	}
	return *r.Present
}

func (r RecordCallRequest) prepared() bool {
	if r.Prepared == nil {
		return true
	}
	return *r.Prepared
}

func (r RecordCallRequest) score() int {
	if r.Score == nil {
		return 5
	}
	return *r.Score
}

// EditRatingRequest replaces the outcome fields of an existing rating.
type EditRatingRequest struct {
	Present  bool `json:"present"`
	Prepared bool `json:"prepared"`
	Score    int  `json:"score"`
}

// RatingService owns every write path that can move a student's cached
// counters: recording calls, editing ratings and explicit recalculation.
type RatingService struct {
	ratings   ratingRepository
	students  studentFinder
	recalc    counterRecalculator
	classes   classFinder
	roster    rosterInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRatingService constructs the rating service.
func NewRatingService(ratings ratingRepository, students studentFinder, recalc counterRecalculator, classes classFinder, roster rosterInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		ratings:   ratings,
		students:  students,
		recalc:    recalc,
		classes:   classes,
		roster:    roster,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// RecordCall persists one cold-call outcome for an owned student and returns
// the rating together with the student's refreshed counters. Rating insert
// and recompute commit as one transaction.
func (s *RatingService) RecordCall(ctx context.Context, professorID, studentID string, req RecordCallRequest) (*models.Rating, *models.Student, error) {
	student, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID)
	if err != nil {
		return nil, nil, err
	}

	date := time.Now().UTC()
	if req.At != nil {
		date = req.At.UTC()
	}
	rating := &models.Rating{
		StudentID:  student.ID,
		ClassID:    student.ClassID,
		Date:       date,
		Attendance: req.present(),
		Prepared:   req.prepared(),
		Score:      req.score(),
	}

	updated, err := s.ratings.CreateWithRecalc(ctx, rating)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record call")
	}

	s.metrics.RecordCallPersisted()
	if s.roster != nil {
		s.roster.InvalidateClass(ctx, student.ClassID)
	}
	s.logger.Info("cold call recorded",
		zap.String("student_id", student.ID),
		zap.String("class_id", student.ClassID),
		zap.Bool("present", rating.Attendance),
		zap.Int("score", rating.Score),
	)
	return rating, updated, nil
}

// EditRating replaces an existing rating's outcome and recomputes the owning
// student's counters.
func (s *RatingService) EditRating(ctx context.Context, professorID, ratingID string, req EditRatingRequest) (*models.Rating, *models.Student, error) {
	rating, err := s.ratings.FindByID(ctx, ratingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "rating not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating")
	}
	if _, err := ownedStudent(ctx, s.students, s.classes, rating.StudentID, professorID); err != nil {
		return nil, nil, err
	}

	rating.Attendance = req.Present
	rating.Prepared = req.Prepared
	rating.Score = req.Score

	student, err := s.ratings.UpdateWithRecalc(ctx, rating)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit rating")
	}
	if s.roster != nil {
		s.roster.InvalidateClass(ctx, student.ClassID)
	}
	return rating, student, nil
}

// RecalcAll rebuilds an owned student's counters from its rating history.
// Idempotent: running it twice without new ratings changes nothing.
func (s *RatingService) RecalcAll(ctx context.Context, professorID, studentID string) (*models.Student, error) {
	if _, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID); err != nil {
		return nil, err
	}
	student, err := s.recalc.RecalcCounters(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recalculate counters")
	}
	if s.roster != nil {
		s.roster.InvalidateClass(ctx, student.ClassID)
	}
	return student, nil
}

// History returns an owned student's rating history with derived metrics.
func (s *RatingService) History(ctx context.Context, professorID, studentID string) (*models.RosterEntry, []models.Rating, error) {
	student, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID)
	if err != nil {
		return nil, nil, err
	}
	ratings, err := s.ratings.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
	}
	entry := &models.RosterEntry{
		Student:       *student,
		AttendancePct: student.AttendanceRate(),
		Average:       student.AverageScore(),
		Tier:          student.PerformanceTier(),
	}
	return entry, ratings, nil
}
