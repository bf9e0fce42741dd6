package models

import "time"

// Class is a roster of students owned by a single professor.
type Class struct {
	ID          string     `db:"id" json:"id"`
	ProfessorID string     `db:"professor_id" json:"professor_id"`
	Name        string     `db:"name" json:"name"`
	IsArchived  bool       `db:"is_archived" json:"is_archived"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the class is currently running. With both dates set
// the date window decides; otherwise the archive flag does.
func (c Class) IsActive(now time.Time) bool {
	if c.StartDate != nil && c.EndDate != nil {
		day := now.Truncate(24 * time.Hour)
		return !day.Before(c.StartDate.Truncate(24*time.Hour)) && !day.After(c.EndDate.Truncate(24*time.Hour))
	}
	return !c.IsArchived
}

// ValidDates rejects a window whose end precedes its start. Open-ended
// windows are fine.
func (c Class) ValidDates() bool {
	if c.StartDate != nil && c.EndDate != nil {
		return !c.EndDate.Before(*c.StartDate)
	}
	return true
}
