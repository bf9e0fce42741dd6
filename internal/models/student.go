package models

import (
	"math"
	"time"
)

// Seating is the student's assigned section of the room.
type Seating string

const (
	SeatingFrontRight  Seating = "FR"
	SeatingFrontMiddle Seating = "FM"
	SeatingFrontLeft   Seating = "FL"
	SeatingBackRight   Seating = "BR"
	SeatingBackMiddle  Seating = "BM"
	SeatingBackLeft    Seating = "BL"
	SeatingNone        Seating = "NA"
)

var seatingLabels = map[Seating]string{
	SeatingFrontRight:  "Front Right",
	SeatingFrontMiddle: "Front Middle",
	SeatingFrontLeft:   "Front Left",
	SeatingBackRight:   "Back Right",
	SeatingBackMiddle:  "Back Middle",
	SeatingBackLeft:    "Back Left",
	SeatingNone:        "None",
}

// Label returns the human readable seating name.
func (s Seating) Label() string {
	if label, ok := seatingLabels[s]; ok {
		return label
	}
	return seatingLabels[SeatingNone]
}

// Valid reports whether the seating is a supported code.
func (s Seating) Valid() bool {
	_, ok := seatingLabels[s]
	return ok
}

// ParseSeating maps a wire value, code or label, onto a seating code.
// Anything unrecognized falls back to NA.
func ParseSeating(raw string) Seating {
	code := Seating(raw)
	if code.Valid() {
		return code
	}
	for seat, label := range seatingLabels {
		if label == raw {
			return seat
		}
	}
	return SeatingNone
}

// Performance tiers derived from a student's attendance rate.
const (
	TierExcellent        = "Excellent"
	TierGood             = "Good"
	TierNeedsImprovement = "Needs Improvement"
)

// Student belongs to exactly one class. The three counters are caches over
// the student's rating history; only a recalculation may write them.
type Student struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	USCID       string    `db:"usc_id" json:"usc_id"`
	Email       string    `db:"email" json:"email"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Seating     Seating   `db:"seating" json:"seating"`
	TotalCalls  int       `db:"total_calls" json:"total_calls"`
	AbsentCalls int       `db:"absent_calls" json:"absent_calls"`
	TotalScore  int       `db:"total_score" json:"total_score"`
	Dropped     bool      `db:"dropped" json:"dropped"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NetCalls is the number of calls the student was present for, the
// randomizer's fairness metric.
func (s Student) NetCalls() int {
	return s.TotalCalls - s.AbsentCalls
}

// AttendanceRate is the percentage of calls the student attended,
// rounded to two decimals. A student never called on rates 0.
func (s Student) AttendanceRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return round2(100 * float64(s.TotalCalls-s.AbsentCalls) / float64(s.TotalCalls))
}

// AverageScore is the mean score over present calls, rounded to two
// decimals, 0 when the student has no present calls.
func (s Student) AverageScore() float64 {
	present := s.TotalCalls - s.AbsentCalls
	if present <= 0 {
		return 0
	}
	return round2(float64(s.TotalScore) / float64(present))
}

// PerformanceTier classifies the attendance rate. Boundaries are strict:
// exactly 90 is "Good", exactly 75 is "Needs Improvement".
func (s Student) PerformanceTier() string {
	rate := s.AttendanceRate()
	switch {
	case rate > 90:
		return TierExcellent
	case rate > 75:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
