package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/database"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

var childClock = time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC)

type flakyChildren struct {
	memoryChildren
	failures int
	attempts int
}

func (f *flakyChildren) Create(ctx context.Context, child *models.Child) error {
	f.attempts++
	if f.attempts <= f.failures {
		return &pq.Error{Code: database.UniqueViolation, Constraint: "children_activation_code_key"}
	}
	return f.memoryChildren.Create(ctx, child)
}

func newChildService(db *memoryDB, repo childStore) *ChildService {
	if repo == nil {
		repo = memoryChildren{db}
	}
	svc := NewChildService(repo, memoryRecords{db}, memoryUsers{db}, db, nil, nil, ChildServiceConfig{})
	svc.now = func() time.Time { return childClock }
	return svc
}

func registerRequest() dto.RegisterChildRequest {
	return dto.RegisterChildRequest{
		FirstNames:       " Sofia ",
		LastNames:        "Diaz",
		Gender:           "f",
		BirthDate:        "2024-01-01",
		ResidenceAddress: "Calle 1",
	}
}

func TestRegisterChildByTutorLinksChild(t *testing.T) {
	db := newMemoryDB()
	userID, tutorID := uuid.NewString(), uuid.NewString()
	db.tutors[userID] = models.Tutor{ID: tutorID, UserID: userID}
	svc := newChildService(db, nil)

	registered, err := svc.Register(context.Background(), registerRequest(), &models.Claims{UserID: userID, Role: models.RoleTutor})
	require.NoError(t, err)

	assert.Equal(t, "Sofia", registered.FirstNames)
	assert.Equal(t, "F", registered.Gender)
	assert.Len(t, registered.ActivationCode, 8)
	assert.Equal(t, childClock.Add(30*24*time.Hour), registered.ActivationCodeExpiresAt)
	assert.True(t, registered.LinkedTo(tutorID))

	stored, ok := db.child(registered.ID)
	require.True(t, ok)
	assert.Equal(t, registered.ActivationCode, stored.ActivationCode)
}

func TestRegisterChildByAdminLeavesUnlinked(t *testing.T) {
	db := newMemoryDB()
	svc := newChildService(db, nil)

	registered, err := svc.Register(context.Background(), registerRequest(), &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, registered.TutorID)
}

func TestRegisterChildRetriesCodeCollisions(t *testing.T) {
	db := newMemoryDB()
	repo := &flakyChildren{memoryChildren: memoryChildren{db}, failures: 2}
	svc := newChildService(db, repo)

	_, err := svc.Register(context.Background(), registerRequest(), &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.attempts)

	repo = &flakyChildren{memoryChildren: memoryChildren{db}, failures: 3}
	svc = newChildService(db, repo)
	_, err = svc.Register(context.Background(), registerRequest(), &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestRegisterChildValidation(t *testing.T) {
	db := newMemoryDB()
	svc := newChildService(db, nil)
	admin := &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin}

	future := registerRequest()
	future.BirthDate = "2024-04-03"
	_, err := svc.Register(context.Background(), future, admin)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	badGender := registerRequest()
	badGender.Gender = "X"
	_, err = svc.Register(context.Background(), badGender, admin)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Register(context.Background(), registerRequest(), &models.Claims{UserID: uuid.NewString(), Role: models.RoleNurse})
	assert.ErrorIs(t, err, appErrors.ErrTutorNotFound)
	assert.Empty(t, db.children)
}

func TestAuthorizeChild(t *testing.T) {
	db := newMemoryDB()
	userID, tutorID := uuid.NewString(), uuid.NewString()
	otherUser := uuid.NewString()
	db.tutors[userID] = models.Tutor{ID: tutorID, UserID: userID}
	db.tutors[otherUser] = models.Tutor{ID: uuid.NewString(), UserID: otherUser}
	childID := uuid.NewString()
	db.children[childID] = models.Child{ID: childID, TutorID: &tutorID}
	svc := newChildService(db, nil)

	child, err := svc.Authorize(context.Background(), childID, &models.Claims{UserID: userID, Role: models.RoleTutor})
	require.NoError(t, err)
	assert.Equal(t, childID, child.ID)

	_, err = svc.Authorize(context.Background(), childID, &models.Claims{UserID: otherUser, Role: models.RoleTutor})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Authorize(context.Background(), childID, &models.Claims{UserID: uuid.NewString(), Role: models.RoleNurse})
	assert.NoError(t, err)

	_, err = svc.Authorize(context.Background(), uuid.NewString(), &models.Claims{UserID: userID, Role: models.RoleTutor})
	assert.ErrorIs(t, err, appErrors.ErrChildNotFound)

	_, err = svc.Authorize(context.Background(), "child-1", &models.Claims{UserID: userID, Role: models.RoleTutor})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDeleteChild(t *testing.T) {
	db := newMemoryDB()
	admin := &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	clean, vaccinated := uuid.NewString(), uuid.NewString()
	db.children[clean] = models.Child{ID: clean}
	db.children[vaccinated] = models.Child{ID: vaccinated}
	db.records["r1"] = models.VaccinationRecord{ID: "r1", ChildID: vaccinated}
	svc := newChildService(db, nil)

	err := svc.Delete(context.Background(), vaccinated, admin)
	assert.ErrorIs(t, err, appErrors.ErrChildHasHistory)
	_, ok := db.child(vaccinated)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(context.Background(), clean, admin))
	_, ok = db.child(clean)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Delete(context.Background(), clean, admin), appErrors.ErrChildNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), vaccinated, &models.Claims{UserID: uuid.NewString(), Role: models.RoleManager}), appErrors.ErrForbidden)
}

func TestListChildrenForTutor(t *testing.T) {
	db := newMemoryDB()
	userID, tutorID := uuid.NewString(), uuid.NewString()
	otherUser := uuid.NewString()
	db.tutors[userID] = models.Tutor{ID: tutorID, UserID: userID}
	db.tutors[otherUser] = models.Tutor{ID: uuid.NewString(), UserID: otherUser}
	mine, theirs := uuid.NewString(), uuid.NewString()
	otherTutor := db.tutors[otherUser].ID
	db.children[mine] = models.Child{ID: mine, FirstNames: "Ana", TutorID: &tutorID}
	db.children[theirs] = models.Child{ID: theirs, FirstNames: "Luis", TutorID: &otherTutor}
	svc := newChildService(db, nil)
	tutor := &models.Claims{UserID: userID, Role: models.RoleTutor}

	items, err := svc.ListForTutor(context.Background(), userID, tutor)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mine, items[0].ID)

	items, err = svc.ListForTutor(context.Background(), otherUser, &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, theirs, items[0].ID)

	_, err = svc.ListForTutor(context.Background(), otherUser, tutor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ListForTutor(context.Background(), userID, &models.Claims{UserID: userID, Role: models.RoleDoctor})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ListForTutor(context.Background(), "tutor-1", tutor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	stranger := uuid.NewString()
	_, err = svc.ListForTutor(context.Background(), stranger, &models.Claims{UserID: stranger, Role: models.RoleTutor})
	assert.ErrorIs(t, err, appErrors.ErrTutorNotFound)
}

func TestListChildrenForTutorWithoutChildren(t *testing.T) {
	db := newMemoryDB()
	userID := uuid.NewString()
	db.tutors[userID] = models.Tutor{ID: uuid.NewString(), UserID: userID}
	svc := newChildService(db, nil)

	items, err := svc.ListForTutor(context.Background(), userID, &models.Claims{UserID: userID, Role: models.RoleTutor})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGenerateActivationCode(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, err := GenerateActivationCode(10)
		require.NoError(t, err)
		require.Len(t, code, 10)
		for _, r := range code {
			assert.Contains(t, activationAlphabet, string(r))
		}
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}
