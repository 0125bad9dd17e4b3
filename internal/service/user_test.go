package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:     "bob@example.com",
		Username:  "bob",
		FirstName: "Bob",
		LastName:  "Jones",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	createTestUser(t, db, "alice")

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:     "alice@example.com",
		Username:  "alice2",
		FirstName: "A",
		LastName:  "B",
		Password:  "pw",
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "email")

	_, err = svc.Create(context.Background(), CreateUserInput{
		Email:     "other@example.com",
		Username:  "alice",
		FirstName: "A",
		LastName:  "B",
		Password:  "pw",
	})
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "username")
}

func TestCreateUserRejectsBadUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:     "x@example.com",
		Username:  "has spaces!",
		FirstName: "A",
		LastName:  "B",
		Password:  "pw",
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "username")
}

func TestSetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	auth := NewAuthService(db)
	user := createTestUser(t, db, "alice")

	// Wrong current password.
	err := svc.SetPassword(user, "wrong", "newpassword")
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "current_password")

	// New password equal to the current one.
	err = svc.SetPassword(user, "password123", "password123")
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "new_password")

	// Successful change invalidates the old password.
	require.NoError(t, svc.SetPassword(user, "password123", "newpassword"))
	_, err = auth.Login(user.Email, "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(user.Email, "newpassword")
	assert.NoError(t, err)
}

func TestAvatarLifecycle(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)
	svc := NewUserService(db, store)
	user := createTestUser(t, db, "alice")

	url, err := svc.SetAvatar(context.Background(), user, testImagePayload)
	require.NoError(t, err)
	assert.Contains(t, url, "/media/avatars/")

	got, err := svc.Get(user.ID)
	require.NoError(t, err)
	firstPath := got.Avatar
	assert.NotEmpty(t, firstPath)

	// Replacing stores a new file.
	_, err = svc.SetAvatar(context.Background(), got, testImagePayload)
	require.NoError(t, err)
	got, err = svc.Get(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, firstPath, got.Avatar)

	require.NoError(t, svc.DeleteAvatar(context.Background(), got))
	got, err = svc.Get(user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Avatar)

	// Deleting an absent avatar is a no-op.
	assert.NoError(t, svc.DeleteAvatar(context.Background(), got))
}

func TestSetAvatarRejectsInvalidPayload(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	user := createTestUser(t, db, "alice")

	_, err := svc.SetAvatar(context.Background(), user, "not-base64!!!")
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "avatar")
}

func TestSubscribe(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	assert.ErrorIs(t, svc.Subscribe(alice.ID, alice.ID), ErrSelfSubscribe)

	require.NoError(t, svc.Subscribe(alice.ID, bob.ID))
	assert.True(t, svc.IsSubscribed(alice.ID, bob.ID))
	assert.False(t, svc.IsSubscribed(bob.ID, alice.ID))

	// Subscribing twice is a conflict.
	assert.ErrorIs(t, svc.Subscribe(alice.ID, bob.ID), ErrAlreadyExists)

	// Unknown followee is a 404.
	assert.ErrorIs(t, svc.Subscribe(alice.ID, 9999), ErrNotFound)
}

func TestUnsubscribe(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	// Removing a relation that does not exist is a client error.
	assert.ErrorIs(t, svc.Unsubscribe(alice.ID, bob.ID), ErrNotExists)

	require.NoError(t, svc.Subscribe(alice.ID, bob.ID))
	require.NoError(t, svc.Unsubscribe(alice.ID, bob.ID))
	assert.False(t, svc.IsSubscribed(alice.ID, bob.ID))
}

func TestSubscriptionsPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	alice := createTestUser(t, db, "alice")

	for _, name := range []string{"bob", "carol", "dave"} {
		u := createTestUser(t, db, name)
		require.NoError(t, svc.Subscribe(alice.ID, u.ID))
	}

	users, total, err := svc.Subscriptions(alice.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)

	users, _, err = svc.Subscriptions(alice.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRecipesByAuthorLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestStore(t))
	recipes := newTestRecipeService(t, db)
	alice := createTestUser(t, db, "alice")
	flour := createTestIngredient(t, db, "flour", "g")

	for _, name := range []string{"Bread", "Cake", "Pie"} {
		createTestRecipe(t, recipes, alice.ID, name, IngredientLine{IngredientID: flour.ID, Amount: 100})
	}

	got, total, err := svc.RecipesByAuthor(alice.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, got, 2)

	got, _, err = svc.RecipesByAuthor(alice.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
