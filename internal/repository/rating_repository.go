package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coldcall/coldcall-api/internal/models"
)

const ratingColumns = `id, student_id, class_id, date, attendance, prepared, score, created_at`

// RatingRepository manages persistence for cold-call ratings.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs a RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// CreateWithRecalc inserts a rating and rebuilds the owning student's cached
// counters inside one transaction, so a half-applied call never becomes
// visible. Returns the refreshed student.
func (r *RatingRepository) CreateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error) {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rating.Date.IsZero() {
		rating.Date = now
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}

	const insert = `INSERT INTO ratings (id, student_id, class_id, date, attendance, prepared, score, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insert, rating.ID, rating.StudentID, rating.ClassID,
		rating.Date, rating.Attendance, rating.Prepared, rating.Score, rating.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert rating: %w", err)
	}

	var student models.Student
	if err := tx.GetContext(ctx, &student, recalcStudentQuery, rating.StudentID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("recalc after rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}
	return &student, nil
}

// UpdateWithRecalc replaces a rating's outcome fields and rebuilds the owning
// student's counters in the same transaction.
func (r *RatingRepository) UpdateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}

	const update = `UPDATE ratings SET attendance = $2, prepared = $3, score = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, rating.ID, rating.Attendance, rating.Prepared, rating.Score); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("update rating: %w", err)
	}

	var student models.Student
	if err := tx.GetContext(ctx, &student, recalcStudentQuery, rating.StudentID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("recalc after rating edit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}
	return &student, nil
}

// FindByID fetches a rating by ID.
func (r *RatingRepository) FindByID(ctx context.Context, id string) (*models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`
	var rating models.Rating
	if err := r.db.GetContext(ctx, &rating, query, id); err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListByStudent returns the student's rating history oldest first.
func (r *RatingRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE student_id = $1 ORDER BY date`
	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, studentID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// BulkUpsert applies a batch of imported ratings keyed on (student, date) as
// one all-or-nothing transaction. Counter recomputation is the caller's
// responsibility, once per distinct student.
func (r *RatingRepository) BulkUpsert(ctx context.Context, ratings []models.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk rating tx: %w", err)
	}

	const query = `INSERT INTO ratings (id, student_id, class_id, date, attendance, prepared, score, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (student_id, date)
        DO UPDATE SET attendance = EXCLUDED.attendance, prepared = EXCLUDED.prepared, score = EXCLUDED.score`
	now := time.Now().UTC()
	for i := range ratings {
		rating := &ratings[i]
		if rating.ID == "" {
			rating.ID = uuid.NewString()
		}
		if rating.CreatedAt.IsZero() {
			rating.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query, rating.ID, rating.StudentID, rating.ClassID,
			rating.Date, rating.Attendance, rating.Prepared, rating.Score, rating.CreatedAt); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert rating %s/%s: %w", rating.StudentID, rating.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk rating tx: %w", err)
	}
	return nil
}
