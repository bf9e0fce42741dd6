package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coldcall/coldcall-api/internal/models"
)

// NoteRepository manages persistence for student notes.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs a NoteRepository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a note.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.Date.IsZero() {
		note.Date = time.Now().UTC()
	}
	const query = `INSERT INTO notes (id, student_id, class_id, note, date)
        VALUES (:id, :student_id, :class_id, :note, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// FindByID fetches a note by ID.
func (r *NoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	const query = `SELECT id, student_id, class_id, note, date FROM notes WHERE id = $1`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByStudent returns notes for a student, newest first.
func (r *NoteRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Note, error) {
	const query = `SELECT id, student_id, class_id, note, date FROM notes WHERE student_id = $1 ORDER BY date DESC`
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, studentID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
