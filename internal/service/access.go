package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ownedClass resolves a class and verifies the professor owns it. Unknown ids
// map to not-found; someone else's class maps to forbidden, with nothing about
// the class leaked either way.
func ownedClass(ctx context.Context, classes classFinder, classID, professorID string) (*models.Class, error) {
	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.ProfessorID != professorID {
		return nil, appErrors.ErrForbidden
	}
	return class, nil
}

// ownedStudent resolves a student and walks the ownership chain up through its
// class to the professor.
func ownedStudent(ctx context.Context, students studentFinder, classes classFinder, studentID, professorID string) (*models.Student, error) {
	student, err := students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := ownedClass(ctx, classes, student.ClassID, professorID); err != nil {
		return nil, err
	}
	return student, nil
}
