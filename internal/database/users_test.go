package database

import (
	"context"
	"testing"

	"challenge-server/internal/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createRandomUser(t *testing.T) *User {
	t.Helper()

	hashedPassword, err := auth.HashPassword("secretpassword")
	require.NoError(t, err)

	name := "user_" + uuid.NewString()[:8]
	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: hashedPassword,
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	user := createRandomUser(t)

	require.Zero(t, user.TotalPoints)
	require.False(t, user.IsAdmin)

	byName, err := testStore.GetUserByUsername(ctx, user.Username)
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)

	byEmail, err := testStore.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byID, err := testStore.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, byID.Username)
	require.NotEmpty(t, byID.PasswordHash)

	missing, err := testStore.GetUserByUsername(ctx, "nonexistent")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCreateUserDuplicates(t *testing.T) {
	ctx := context.Background()
	user := createRandomUser(t)

	_, err := testStore.CreateUser(ctx, CreateUserParams{
		Username:     user.Username,
		Email:        "other_" + user.Email,
		PasswordHash: "x",
	})
	constraint, ok := UniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, ConstraintUsername, constraint)

	_, err = testStore.CreateUser(ctx, CreateUserParams{
		Username:     "other_" + user.Username,
		Email:        user.Email,
		PasswordHash: "x",
	})
	constraint, ok = UniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, ConstraintEmail, constraint)
}

func TestAdminFlagAndPassword(t *testing.T) {
	ctx := context.Background()
	user := createRandomUser(t)

	isAdmin, err := testStore.IsUserAdmin(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, isAdmin)

	require.NoError(t, testStore.SetUserAdmin(ctx, user.ID, true))
	isAdmin, err = testStore.IsUserAdmin(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, isAdmin)

	ok, err := testStore.UpdateUserPassword(ctx, user.ID, "new-hash")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = testStore.UpdateUserPassword(ctx, -1, "new-hash")
	require.NoError(t, err)
	require.False(t, ok)
}
