package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coldcall/coldcall-api/internal/models"
)

const studentColumns = `id, class_id, usc_id, email, first_name, last_name, seating,
        total_calls, absent_calls, total_score, dropped, created_at, updated_at`

// recalcStudentQuery rebuilds the cached counters from the rating history.
// It is the only statement that writes total_calls, absent_calls or
// total_score.
const recalcStudentQuery = `UPDATE students s SET
        total_calls = (SELECT COUNT(*) FROM ratings r WHERE r.student_id = s.id),
        absent_calls = (SELECT COUNT(*) FROM ratings r WHERE r.student_id = s.id AND r.attendance = false),
        total_score = (SELECT COALESCE(SUM(r.score), 0) FROM ratings r WHERE r.student_id = s.id AND r.attendance = true),
        updated_at = $2
        WHERE s.id = $1
        RETURNING ` + studentColumns

const insertStudentQuery = `INSERT INTO students (id, class_id, usc_id, email, first_name, last_name, seating,
        total_calls, absent_calls, total_score, dropped, created_at, updated_at)
        VALUES (:id, :class_id, :usc_id, :email, :first_name, :last_name, :seating,
        :total_calls, :absent_calls, :total_score, :dropped, :created_at, :updated_at)`

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Seating == "" {
		student.Seating = models.SeatingNone
	}
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateBatch inserts several students as one all-or-nothing transaction. A
// failure on any row leaves none of them persisted.
func (r *StudentRepository) CreateBatch(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student batch tx: %w", err)
	}

	now := time.Now().UTC()
	for i := range students {
		student := &students[i]
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		if student.CreatedAt.IsZero() {
			student.CreatedAt = now
		}
		student.UpdatedAt = now
		if student.Seating == "" {
			student.Seating = models.SeatingNone
		}
		if _, err := tx.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert student %s: %w", student.USCID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student batch tx: %w", err)
	}
	return nil
}

// Update modifies a student's identity fields, class and drop flag. The
// cached counters are deliberately not part of this statement.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET class_id = :class_id, usc_id = :usc_id, email = :email,
        first_name = :first_name, last_name = :last_name, seating = :seating, dropped = :dropped,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByClass returns every student rostered in the class.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE class_id = $1 ORDER BY last_name, first_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListCallable returns the class's students still eligible for cold calls.
func (r *StudentRepository) ListCallable(ctx context.Context, classID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE class_id = $1 AND dropped = false`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list callable students: %w", err)
	}
	return students, nil
}

// FindByUSCIDs resolves usc_ids within one professor's student pool in a
// single round trip.
func (r *StudentRepository) FindByUSCIDs(ctx context.Context, professorID string, uscIDs []string) ([]models.Student, error) {
	if len(uscIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT s.`+joinStudentColumns()+` FROM students s
        JOIN classes c ON c.id = s.class_id
        WHERE c.professor_id = ? AND s.usc_id IN (?)`, professorID, uscIDs)
	if err != nil {
		return nil, fmt.Errorf("build usc_id lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("lookup students by usc_id: %w", err)
	}
	return students, nil
}

// SetDropped flips a student's dropped flag.
func (r *StudentRepository) SetDropped(ctx context.Context, id string, dropped bool) error {
	const query = `UPDATE students SET dropped = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, dropped, time.Now().UTC()); err != nil {
		return fmt.Errorf("set dropped: %w", err)
	}
	return nil
}

// Delete removes a student; ratings and notes cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// RecalcCounters recomputes the cached counters from the rating history and
// returns the refreshed student.
func (r *StudentRepository) RecalcCounters(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, recalcStudentQuery, studentID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("recalc student counters: %w", err)
	}
	return &student, nil
}

func joinStudentColumns() string {
	return `id, s.class_id, s.usc_id, s.email, s.first_name, s.last_name, s.seating,
        s.total_calls, s.absent_calls, s.total_score, s.dropped, s.created_at, s.updated_at`
}
