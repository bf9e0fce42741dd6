package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

const uscIDMaxLen = 9

type studentRepository interface {
	CreateBatch(ctx context.Context, students []models.Student) error
	Update(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	SetDropped(ctx context.Context, id string, dropped bool) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentsRequest supports single and comma-separated multi entry, the
// way the manual add form does. All list fields must line up.
type CreateStudentsRequest struct {
	USCIDs     string `json:"usc_id" validate:"required"`
	FirstNames string `json:"first_name" validate:"required"`
	LastNames  string `json:"last_name" validate:"required"`
	Emails     string `json:"email"`
	Seating    string `json:"seating"`
}

// UpdateStudentRequest edits one student's identity fields.
type UpdateStudentRequest struct {
	USCID     string `json:"usc_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email"`
	Seating   string `json:"seating"`
	ClassID   string `json:"class_id" validate:"required"`
}

// StudentService handles roster membership use-cases.
type StudentService struct {
	repo      studentRepository
	classes   classFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// Create adds one or more students to an owned class. Comma-separated fields
// add several at once; the batch is validated up front and inserted in one
// transaction, so a failing row persists nothing.
func (s *StudentService) Create(ctx context.Context, professorID, classID string, req CreateStudentsRequest) ([]models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := ownedClass(ctx, s.classes, classID, professorID); err != nil {
		return nil, err
	}

	uscIDs := splitList(strings.ToUpper(req.USCIDs))
	firstNames := splitList(req.FirstNames)
	lastNames := splitList(req.LastNames)
	emails := splitList(req.Emails)
	if len(emails) == 0 {
		emails = make([]string, len(uscIDs))
	}
	if len(firstNames) != len(uscIDs) || len(lastNames) != len(uscIDs) || len(emails) != len(uscIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all fields must have the same number of entries")
	}

	students := make([]models.Student, 0, len(uscIDs))
	for i, uscID := range uscIDs {
		if len(uscID) > uscIDMaxLen {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("usc_id %q exceeds %d characters", uscID, uscIDMaxLen))
		}
		students = append(students, models.Student{
			ClassID:   classID,
			USCID:     uscID,
			Email:     emails[i],
			FirstName: firstNames[i],
			LastName:  lastNames[i],
			Seating:   models.ParseSeating(req.Seating),
		})
	}

	if err := s.repo.CreateBatch(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create students")
	}
	return students, nil
}

// Get returns an owned student.
func (s *StudentService) Get(ctx context.Context, professorID, studentID string) (*models.Student, error) {
	return ownedStudent(ctx, s.repo, s.classes, studentID, professorID)
}

// ListByClass returns the full roster of an owned class.
func (s *StudentService) ListByClass(ctx context.Context, professorID, classID string) ([]models.Student, error) {
	if _, err := ownedClass(ctx, s.classes, classID, professorID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Update edits identity fields and may transfer the student to another class
// the professor owns. Counters are untouchable here.
func (s *StudentService) Update(ctx context.Context, professorID, studentID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := ownedStudent(ctx, s.repo, s.classes, studentID, professorID)
	if err != nil {
		return nil, err
	}
	uscID := strings.ToUpper(strings.TrimSpace(req.USCID))
	if len(uscID) > uscIDMaxLen {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("usc_id %q exceeds %d characters", uscID, uscIDMaxLen))
	}
	if req.ClassID != student.ClassID {
		if _, err := ownedClass(ctx, s.classes, req.ClassID, professorID); err != nil {
			return nil, err
		}
	}
	student.USCID = uscID
	student.Email = req.Email
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Seating = models.ParseSeating(req.Seating)
	student.ClassID = req.ClassID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// SetDropped toggles a student in or out of the randomizer pool.
func (s *StudentService) SetDropped(ctx context.Context, professorID, studentID string, dropped bool) (*models.Student, error) {
	student, err := ownedStudent(ctx, s.repo, s.classes, studentID, professorID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDropped(ctx, studentID, dropped); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update dropped flag")
	}
	student.Dropped = dropped
	return student, nil
}

// Delete removes a student and its rating and note history.
func (s *StudentService) Delete(ctx context.Context, professorID, studentID string) error {
	if _, err := ownedStudent(ctx, s.repo, s.classes, studentID, professorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
