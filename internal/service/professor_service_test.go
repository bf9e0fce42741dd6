package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type mockProfessorStore struct {
	professors map[string]*models.Professor
}

func (m *mockProfessorStore) Create(ctx context.Context, professor *models.Professor) error {
	if m.professors == nil {
		m.professors = map[string]*models.Professor{}
	}
	if professor.ID == "" {
		professor.ID = "prof-1"
	}
	m.professors[professor.ID] = professor
	return nil
}

func (m *mockProfessorStore) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	professor, ok := m.professors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return professor, nil
}

func (m *mockProfessorStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, p := range m.professors {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func TestRegisterHashesPassword(t *testing.T) {
	store := &mockProfessorStore{}
	svc := NewProfessorService(store, nil, nil)

	professor, err := svc.Register(context.Background(), RegisterProfessorRequest{
		Email: "Prof@USC.EDU", FullName: "Pat Prof", Password: "sup3rsecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "prof@usc.edu", professor.Email, "emails normalize to lower case")
	assert.NotEqual(t, "sup3rsecret", professor.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(professor.PasswordHash), []byte("sup3rsecret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := &mockProfessorStore{}
	svc := NewProfessorService(store, nil, nil)

	_, err := svc.Register(context.Background(), RegisterProfessorRequest{
		Email: "prof@usc.edu", FullName: "Pat Prof", Password: "sup3rsecret",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterProfessorRequest{
		Email: "PROF@usc.edu", FullName: "Other Prof", Password: "another-pw",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewProfessorService(&mockProfessorStore{}, nil, nil)

	_, err := svc.Register(context.Background(), RegisterProfessorRequest{
		Email: "not-an-email", FullName: "Pat", Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
