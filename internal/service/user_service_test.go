package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"accounts-api/internal/entities"
	"accounts-api/internal/models"
	"accounts-api/internal/password"
	"accounts-api/internal/repository"
)

func newUserFixture(t *testing.T) (UserService, repository.UserRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	return NewUserService(repo, password.NewBcryptHasher(4), nil), repo
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, svc UserService, email string) *entities.User {
	t.Helper()
	user, err := svc.Create(context.Background(), &models.CreateUserRequest{
		Name:     "Test User",
		Email:    email,
		Password: "pw1secret",
		BirthAt:  strPtr("1990-06-15"),
	})
	require.NoError(t, err)
	return user
}

func TestCreate_DefaultsRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")
	require.Equal(t, entities.RoleUser, user.Role)
	require.NotNil(t, user.BirthAt)
	require.Equal(t, "1990-06-15", user.BirthAt.Format("2006-01-02"))
	require.NotEqual(t, "pw1secret", user.PasswordHash)
}

func TestCreate_ExplicitRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	user, err := svc.Create(context.Background(), &models.CreateUserRequest{
		Name:     "Admin",
		Email:    "admin@x.com",
		Password: "pw1secret",
		Role:     strPtr("admin"),
	})
	require.NoError(t, err)
	require.Equal(t, entities.RoleAdmin, user.Role)
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Create(context.Background(), &models.CreateUserRequest{
		Name:     "X",
		Email:    "x@x.com",
		Password: "pw1secret",
		Role:     strPtr("moderator"),
	})
	require.Error(t, err)
}

func TestUpdate_RejectsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")

	_, err := svc.Update(context.Background(), user.ID, &models.UpdateUserRequest{
		Name:     "X",
		Email:    "a@x.com",
		Password: "pw1secret",
		Role:     "moderator",
	})
	require.Error(t, err)

	unchanged, err := svc.Show(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RoleUser, unchanged.Role)
}

func TestShow_NotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Show(context.Background(), 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdate_ReplacesAllFieldsAndRehashes(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")
	oldHash := user.PasswordHash

	updated, err := svc.Update(context.Background(), user.ID, &models.UpdateUserRequest{
		Name:     "Renamed",
		Email:    "renamed@x.com",
		Password: "pw2secret",
		BirthAt:  strPtr("2000-01-01"),
		Role:     "admin",
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, "renamed@x.com", updated.Email)
	require.Equal(t, entities.RoleAdmin, updated.Role)
	require.Equal(t, "2000-01-01", updated.BirthAt.Format("2006-01-02"))
	require.NotEqual(t, oldHash, updated.PasswordHash)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Update(context.Background(), 999, &models.UpdateUserRequest{
		Name:     "X",
		Email:    "x@x.com",
		Password: "pw1secret",
		Role:     "user",
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePartial_OnlyNameChanges(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")

	updated, err := svc.UpdatePartial(context.Background(), user.ID, &models.PatchUserRequest{
		Name: strPtr("X"),
	})
	require.NoError(t, err)
	require.Equal(t, "X", updated.Name)
	require.Equal(t, user.Email, updated.Email)
	require.Equal(t, user.PasswordHash, updated.PasswordHash)
	require.Equal(t, user.Role, updated.Role)
	require.NotNil(t, updated.BirthAt)
	require.Equal(t, user.BirthAt.Format("2006-01-02"), updated.BirthAt.Format("2006-01-02"))
}

func TestUpdatePartial_RehashesPassword(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")

	updated, err := svc.UpdatePartial(context.Background(), user.ID, &models.PatchUserRequest{
		Password: strPtr("pw3secret"),
	})
	require.NoError(t, err)
	require.NotEqual(t, user.PasswordHash, updated.PasswordHash)
	require.NotEqual(t, "pw3secret", updated.PasswordHash)

	hasher := password.NewBcryptHasher(4)
	require.True(t, hasher.Verify("pw3secret", updated.PasswordHash))
}

func TestUpdatePartial_RejectsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")

	_, err := svc.UpdatePartial(context.Background(), user.ID, &models.PatchUserRequest{
		Role: strPtr("moderator"),
	})
	require.Error(t, err)

	// Nothing changed.
	unchanged, err := svc.Show(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RoleUser, unchanged.Role)
}

func TestUpdatePartial_NotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.UpdatePartial(context.Background(), 999, &models.PatchUserRequest{
		Name: strPtr("X"),
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_RemovesUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	user := createUser(t, svc, "a@x.com")

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err := svc.Show(context.Background(), user.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	err := svc.Delete(context.Background(), 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestList_ReturnsAllUsers(t *testing.T) {
	svc, _ := newUserFixture(t)

	createUser(t, svc, "a@x.com")
	createUser(t, svc, "b@x.com")

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
}
