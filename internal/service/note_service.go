package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type noteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id string) (*models.Note, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
}

// NoteService manages free-form remarks attached to students.
type NoteService struct {
	notes    noteRepository
	students studentFinder
	classes  classFinder
	logger   *zap.Logger
}

// NewNoteService constructs the note service.
func NewNoteService(notes noteRepository, students studentFinder, classes classFinder, logger *zap.Logger) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{notes: notes, students: students, classes: classes, logger: logger}
}

// Create attaches a note to an owned student.
func (s *NoteService) Create(ctx context.Context, professorID, studentID, text string) (*models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note text is required")
	}
	student, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID)
	if err != nil {
		return nil, err
	}
	note := &models.Note{
		StudentID: student.ID,
		ClassID:   student.ClassID,
		Note:      text,
		Date:      time.Now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// ListByStudent returns an owned student's notes.
func (s *NoteService) ListByStudent(ctx context.Context, professorID, studentID string) ([]models.Note, error) {
	if _, err := ownedStudent(ctx, s.students, s.classes, studentID, professorID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// Delete removes a note after walking its ownership chain.
func (s *NoteService) Delete(ctx context.Context, professorID, noteID string) error {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	if _, err := ownedStudent(ctx, s.students, s.classes, note.StudentID, professorID); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, noteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}
