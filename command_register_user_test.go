package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler(t *testing.T) {
	repo := accounts.NewRepositoryManager(newTestDB(t))
	handler := accounts.NewRegisterUserHandler(repo)

	msg := accounts.RegisterUserMessage{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Password:      "longenough1",
		ReceiveEmails: true,
	}

	res, err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)
	require.NotNil(t, res.User)

	assert.NotEqual(t, uuid.Nil, res.User.ID)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "Ada", res.User.FirstName)
	assert.True(t, res.User.ReceiveEmails)

	// the cleartext is gone, only a verifiable hash remains
	assert.NotEqual(t, "longenough1", res.User.PasswordHash)
	assert.NoError(t, accounts.ComparePasswordAndHash("longenough1", res.User.PasswordHash))

	// the record round-trips through the store
	stored, err := repo.Users().GetByIdentifier(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.ID)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	repo := accounts.NewRepositoryManager(newTestDB(t))
	handler := accounts.NewRegisterUserHandler(repo)

	msg := accounts.RegisterUserMessage{
		FirstName: "First",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "longenough1",
	}

	_, err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)

	msg.FirstName = "Second"
	_, err = handler.Execute(context.Background(), msg)
	assert.ErrorIs(t, err, accounts.ErrDuplicateEmail)
}

func TestRegisterUserHandlerEmptyPassword(t *testing.T) {
	repo := accounts.NewRepositoryManager(newTestDB(t))
	handler := accounts.NewRegisterUserHandler(repo)

	_, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		FirstName: "No",
		LastName:  "Password",
		Email:     "nopass@example.com",
	})
	require.Error(t, err)

	// nothing was persisted
	_, err = repo.Users().GetByIdentifier(context.Background(), "nopass@example.com")
	assert.Error(t, err)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	repo := accounts.NewRepositoryManager(newTestDB(t))
	handler := accounts.NewRegisterUserHandler(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		FirstName: "Too",
		LastName:  "Late",
		Email:     "late@example.com",
		Password:  "longenough1",
	})
	assert.Error(t, err)
}

func TestRegisterUserHandlerDeterministicID(t *testing.T) {
	repo := accounts.NewRepositoryManager(newTestDB(t))
	handler := accounts.NewRegisterUserHandler(repo)

	res, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		FirstName: "Stable",
		LastName:  "Id",
		Email:     "stable@example.com",
		Password:  "longenough1",
		UseHashid: true,
	})
	require.NoError(t, err)

	otherRepo := accounts.NewRepositoryManager(newTestDB(t))
	otherHandler := accounts.NewRegisterUserHandler(otherRepo)

	other, err := otherHandler.Execute(context.Background(), accounts.RegisterUserMessage{
		FirstName: "Stable",
		LastName:  "Id",
		Email:     "stable@example.com",
		Password:  "longenough1",
		UseHashid: true,
	})
	require.NoError(t, err)

	// same email derives the same id on independent stores
	assert.Equal(t, res.User.ID, other.User.ID)
}
