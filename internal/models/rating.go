package models

import "time"

// Rating records the outcome of one cold call. ClassID is denormalized from
// the student at creation time so rating exports survive transfers.
type Rating struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Date       time.Time `db:"date" json:"date"`
	Attendance bool      `db:"attendance" json:"attendance"`
	Prepared   bool      `db:"prepared" json:"prepared"`
	Score      int       `db:"score" json:"score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
