package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByProfessor(ctx context.Context, professorID string, includeArchived bool) ([]models.Class, error)
	SetArchived(ctx context.Context, id string, archived bool) error
	Delete(ctx context.Context, id string) error
}

// ClassRequest holds payload for creating or editing classes.
type ClassRequest struct {
	Name      string     `json:"name" validate:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ClassService handles class lifecycle use-cases.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// Create registers a new class for the professor.
func (s *ClassService) Create(ctx context.Context, professorID string, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{
		ProfessorID: professorID,
		Name:        strings.TrimSpace(req.Name),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if !class.ValidDates() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date cannot be before start date")
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update edits name, dates and archive flag of an owned class.
func (s *ClassService) Update(ctx context.Context, professorID, classID string, req ClassRequest, archived bool) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := ownedClass(ctx, s.repo, classID, professorID)
	if err != nil {
		return nil, err
	}
	class.Name = strings.TrimSpace(req.Name)
	class.StartDate = req.StartDate
	class.EndDate = req.EndDate
	class.IsArchived = archived
	if !class.ValidDates() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date cannot be before start date")
	}
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Get returns an owned class.
func (s *ClassService) Get(ctx context.Context, professorID, classID string) (*models.Class, error) {
	return ownedClass(ctx, s.repo, classID, professorID)
}

// List returns the professor's classes.
func (s *ClassService) List(ctx context.Context, professorID string, includeArchived bool) ([]models.Class, error) {
	classes, err := s.repo.ListByProfessor(ctx, professorID, includeArchived)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Archive soft-deletes a class. The flag can be flipped back through Update,
// but normal flow treats archiving as one-way.
func (s *ClassService) Archive(ctx context.Context, professorID, classID string) error {
	if _, err := ownedClass(ctx, s.repo, classID, professorID); err != nil {
		return err
	}
	if err := s.repo.SetArchived(ctx, classID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive class")
	}
	return nil
}

// Delete removes a class and everything rostered beneath it.
func (s *ClassService) Delete(ctx context.Context, professorID, classID string) error {
	if _, err := ownedClass(ctx, s.repo, classID, professorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}
