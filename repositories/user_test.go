package repositories

import (
	"chat-hub/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Fetch(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	id, err := repo.CreateUser("alice@example.com", "$argon2id$fake-hash")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repo.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("$argon2id$fake-hash", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
}

func TestUserRepository_Duplicate_Email_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.CreateUser("alice@example.com", "hash-1")
	req.NoError(err)

	_, err = repo.CreateUser("alice@example.com", "hash-2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// The original credentials survive the collision
	user, err := repo.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal("hash-1", user.PasswordHash)
}

func TestUserRepository_Unknown_Email(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.GetUserByEmail("nobody@example.com")

	req.ErrorIs(err, errors.ErrUserNotFound)
}
