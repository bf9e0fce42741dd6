package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/coldcall/coldcall-api/internal/models"
)

// In-memory doubles shared by the service tests. They keep just enough
// state to observe the aggregation and reconciliation behavior.

type mockClassStore struct {
	classes map[string]*models.Class
}

func newMockClassStore(classes ...*models.Class) *mockClassStore {
	m := &mockClassStore{classes: map[string]*models.Class{}}
	for _, c := range classes {
		m.classes[c.ID] = c
	}
	return m
}

func (m *mockClassStore) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = fmt.Sprintf("class-%d", len(m.classes)+1)
	}
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassStore) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassStore) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *class
	return &copied, nil
}

func (m *mockClassStore) ListByProfessor(ctx context.Context, professorID string, includeArchived bool) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		if c.ProfessorID != professorID {
			continue
		}
		if c.IsArchived && !includeArchived {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockClassStore) SetArchived(ctx context.Context, id string, archived bool) error {
	class, ok := m.classes[id]
	if !ok {
		return sql.ErrNoRows
	}
	class.IsArchived = archived
	return nil
}

func (m *mockClassStore) Delete(ctx context.Context, id string) error {
	delete(m.classes, id)
	return nil
}

type mockStudentStore struct {
	classes  *mockClassStore
	students map[string]*models.Student
	ratings  *mockRatingStore

	recalcCalls map[string]int
	created     int
	updated     int

	// batchFailAt makes CreateBatch reject the batch when it holds at
	// least that many rows (1-based). Zero disables the fault.
	batchFailAt int
}

func newMockStudentStore(classes *mockClassStore, students ...*models.Student) *mockStudentStore {
	m := &mockStudentStore{
		classes:     classes,
		students:    map[string]*models.Student{},
		recalcCalls: map[string]int{},
	}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = fmt.Sprintf("student-%d", len(m.students)+1)
	}
	m.students[student.ID] = student
	m.created++
	return nil
}

func (m *mockStudentStore) CreateBatch(ctx context.Context, students []models.Student) error {
	if m.batchFailAt > 0 && len(students) >= m.batchFailAt {
		return fmt.Errorf("insert student %s: duplicate usc_id", students[m.batchFailAt-1].USCID)
	}
	for i := range students {
		if students[i].ID == "" {
			students[i].ID = fmt.Sprintf("student-%d", len(m.students)+1)
		}
		m.students[students[i].ID] = &students[i]
		m.created++
	}
	return nil
}

func (m *mockStudentStore) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = student
	m.updated++
	return nil
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *student
	return &copied, nil
}

func (m *mockStudentStore) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].USCID < out[j].USCID })
	return out, nil
}

func (m *mockStudentStore) ListCallable(ctx context.Context, classID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		if s.ClassID == classID && !s.Dropped {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].USCID < out[j].USCID })
	return out, nil
}

func (m *mockStudentStore) FindByUSCIDs(ctx context.Context, professorID string, uscIDs []string) ([]models.Student, error) {
	wanted := map[string]bool{}
	for _, id := range uscIDs {
		wanted[id] = true
	}
	var out []models.Student
	for _, s := range m.students {
		if !wanted[s.USCID] {
			continue
		}
		class, ok := m.classes.classes[s.ClassID]
		if !ok || class.ProfessorID != professorID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStudentStore) SetDropped(ctx context.Context, id string, dropped bool) error {
	student, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	student.Dropped = dropped
	return nil
}

func (m *mockStudentStore) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	return nil
}

// RecalcCounters rebuilds the counters from the rating mock, mirroring the
// SQL statement the real repository runs.
func (m *mockStudentStore) RecalcCounters(ctx context.Context, studentID string) (*models.Student, error) {
	student, ok := m.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.recalcCalls[studentID]++
	if m.ratings != nil {
		total, absent, score := 0, 0, 0
		for _, r := range m.ratings.ratings {
			if r.StudentID != studentID {
				continue
			}
			total++
			if !r.Attendance {
				absent++
			} else {
				score += r.Score
			}
		}
		student.TotalCalls = total
		student.AbsentCalls = absent
		student.TotalScore = score
	}
	copied := *student
	return &copied, nil
}

type mockRatingStore struct {
	students *mockStudentStore
	ratings  map[string]*models.Rating
	bulkTxs  int
}

func newMockRatingStore(students *mockStudentStore) *mockRatingStore {
	m := &mockRatingStore{students: students, ratings: map[string]*models.Rating{}}
	if students != nil {
		students.ratings = m
	}
	return m
}

func (m *mockRatingStore) CreateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error) {
	if rating.ID == "" {
		rating.ID = fmt.Sprintf("rating-%d", len(m.ratings)+1)
	}
	m.ratings[rating.ID] = rating
	return m.students.RecalcCounters(ctx, rating.StudentID)
}

func (m *mockRatingStore) UpdateWithRecalc(ctx context.Context, rating *models.Rating) (*models.Student, error) {
	stored, ok := m.ratings[rating.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored.Attendance = rating.Attendance
	stored.Prepared = rating.Prepared
	stored.Score = rating.Score
	return m.students.RecalcCounters(ctx, stored.StudentID)
}

func (m *mockRatingStore) FindByID(ctx context.Context, id string) (*models.Rating, error) {
	rating, ok := m.ratings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *rating
	return &copied, nil
}

func (m *mockRatingStore) ListByStudent(ctx context.Context, studentID string) ([]models.Rating, error) {
	var out []models.Rating
	for _, r := range m.ratings {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockRatingStore) BulkUpsert(ctx context.Context, ratings []models.Rating) error {
	m.bulkTxs++
	for i := range ratings {
		r := ratings[i]
		replaced := false
		for _, existing := range m.ratings {
			if existing.StudentID == r.StudentID && existing.Date.Equal(r.Date) {
				existing.Attendance = r.Attendance
				existing.Prepared = r.Prepared
				existing.Score = r.Score
				replaced = true
				break
			}
		}
		if !replaced {
			r.ID = fmt.Sprintf("rating-%d", len(m.ratings)+1)
			m.ratings[r.ID] = &r
		}
	}
	return nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateClass(ctx context.Context, classID string) {
	m.invalidated = append(m.invalidated, classID)
}
