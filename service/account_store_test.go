package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

func TestAccountStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	account := insertAccount(t, store, "a@example.com")
	assert.Len(t, account.ID, 36)
	assert.Equal(t, models.SubscriptionStarter, account.Subscription)

	byID, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)

	byEmail, err := store.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	_, err = store.FindByEmail(ctx, "A@example.com")
	assert.True(t, core.IsNotFound(err))
}

func TestAccountStore_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	insertAccount(t, store, "a@example.com")

	err := store.Insert(context.Background(), &models.Account{Email: "a@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, core.IsConflict(err))
}

func TestAccountStore_EmptyLookupsMatchNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	insertAccount(t, store, "a@example.com")

	_, err := store.FindByToken(ctx, "")
	assert.True(t, core.IsNotFound(err))

	_, err = store.FindByVerificationToken(ctx, "")
	require.Error(t, err)
	assert.Equal(t, core.ErrKeyVerificationTokenNotFound, core.AsAccountError(err).Key)

	_, err = store.FindByID(ctx, "")
	assert.True(t, core.IsNotFound(err))
}

func TestAccountStore_UpdateFields(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := insertAccount(t, store, "a@example.com")

	token := "session"
	require.NoError(t, store.UpdateFields(ctx, account.ID, map[string]any{"token": token}))

	found, err := store.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	require.NoError(t, store.UpdateFields(ctx, account.ID, map[string]any{"token": nil}))
	_, err = store.FindByToken(ctx, token)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, store.UpdateFields(ctx, account.ID, nil))

	err = store.UpdateFields(ctx, account.ID, map[string]any{"email": "b@example.com"})
	assert.True(t, core.IsValidation(err))

	stored, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", stored.Email)
}

func TestAccountStore_SetVerificationToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := insertAccount(t, store, "a@example.com")

	require.NoError(t, store.SetVerificationToken(ctx, account.ID, "first"))

	found, err := store.FindByVerificationToken(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = store.ConsumeVerificationToken(ctx, "first")
	require.NoError(t, err)

	err = store.SetVerificationToken(ctx, account.ID, "second")
	assert.True(t, core.IsAlreadyVerified(err))

	stored, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.VerificationToken)

	assert.True(t, core.IsNotFound(store.SetVerificationToken(ctx, "missing", "third")))
	assert.True(t, core.IsNotFound(store.SetVerificationToken(ctx, "", "third")))
}

func TestAccountStore_ConsumeVerificationToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := insertAccount(t, store, "a@example.com")
	require.NoError(t, store.SetVerificationToken(ctx, account.ID, "tok"))

	consumed, err := store.ConsumeVerificationToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, account.ID, consumed.ID)
	assert.True(t, consumed.Verify)
	assert.Nil(t, consumed.VerificationToken)

	_, err = store.ConsumeVerificationToken(ctx, "tok")
	assert.True(t, core.IsNotFound(err))

	_, err = store.ConsumeVerificationToken(ctx, "")
	assert.True(t, core.IsNotFound(err))
}

func TestAccountStore_DeleteByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	account := insertAccount(t, store, "a@example.com")

	require.NoError(t, store.DeleteByID(ctx, account.ID))

	_, err := store.FindByID(ctx, account.ID)
	assert.True(t, core.IsNotFound(err))

	assert.True(t, core.IsNotFound(store.DeleteByID(ctx, account.ID)))
	assert.True(t, core.IsNotFound(store.DeleteByID(ctx, "")))
}

func TestAccountStore_ListAll(t *testing.T) {
	store := newTestStore(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		insertAccount(t, store, email)
	}

	accounts, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
