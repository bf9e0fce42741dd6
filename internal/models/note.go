package models

import "time"

// Note is a free-form remark a professor attaches to a student.
type Note struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Note      string    `db:"note" json:"note"`
	Date      time.Time `db:"date" json:"date"`
}
