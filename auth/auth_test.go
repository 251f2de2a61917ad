package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
	"food-ordering-api/repository"
	"food-ordering-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret-0123456789"

func newService(t *testing.T) (*Service, *testutil.Fixture, *repository.Store) {
	t.Helper()
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)
	store := repository.New(db)
	return NewService(store.Accounts, store.Restaurants, store.DeliveryPersons, NewTokens(secret, time.Hour)), f, store
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens(secret, time.Hour)
	rid := uint(3)
	raw, err := tokens.Issue(&models.User{ID: 9, Email: "a@b.c", Role: models.RoleRestaurantOwner}, &rid, nil)
	require.NoError(t, err)

	claims, err := tokens.VerifyHeader("Bearer " + raw)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, models.RoleRestaurantOwner, claims.Role)
	assert.True(t, claims.HasRestaurant(3))
	assert.Nil(t, claims.DeliveryPersonID)
}

func TestVerifyErrors(t *testing.T) {
	tokens := NewTokens(secret, time.Hour)
	raw, err := tokens.Issue(&models.User{ID: 1, Role: models.RoleCustomer}, nil, nil)
	require.NoError(t, err)

	_, err = tokens.VerifyHeader("")
	assert.ErrorIs(t, err, apperrors.ErrMissingToken)

	_, err = tokens.VerifyHeader("Token " + raw)
	assert.ErrorIs(t, err, apperrors.ErrMalformedToken)

	_, err = tokens.VerifyHeader("Bearer not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrMalformedToken)

	_, err = tokens.VerifyHeader("Bearer aaa.bbb.ccc")
	assert.ErrorIs(t, err, apperrors.ErrMalformedToken)

	other := NewTokens("another-secret-0123456789", time.Hour)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	expired := NewTokens(secret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(&models.User{ID: 1, Role: models.RoleCustomer}, nil, nil)
	require.NoError(t, err)
	_, err = tokens.Verify(old)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestSignIn(t *testing.T) {
	svc, f, _ := newService(t)
	ctx := context.Background()

	token, summary, err := svc.SignIn(ctx, f.Owner.Email, testutil.Password)
	require.NoError(t, err)
	require.NotNil(t, summary.RestaurantID)
	assert.Equal(t, f.Restaurant.ID, *summary.RestaurantID)

	claims, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, f.Owner.ID, claims.UserID)

	_, summary, err = svc.SignIn(ctx, f.Courier.Email, testutil.Password)
	require.NoError(t, err)
	require.NotNil(t, summary.DeliveryPersonID)
	assert.Equal(t, f.DeliveryPerson.ID, *summary.DeliveryPersonID)

	_, _, err = svc.SignIn(ctx, "nobody@x.com", testutil.Password)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, _, err = svc.SignIn(ctx, f.Customer.Email, "wrong")
	assert.ErrorIs(t, err, apperrors.ErrBadCredentials)
}

func TestSignInDisabledNeverIssuesToken(t *testing.T) {
	svc, f, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.Accounts.SetDisabled(ctx, f.Customer.ID, true))

	token, summary, err := svc.SignIn(ctx, f.Customer.Email, testutil.Password)
	assert.ErrorIs(t, err, apperrors.ErrDisabled)
	assert.Empty(t, token)
	assert.Nil(t, summary)
}

func TestSignUpHashesPassword(t *testing.T) {
	svc, f, store := newService(t)
	ctx := context.Background()

	_, summary, err := svc.SignUp(ctx, SignUpInput{Name: "New", Username: "newbie", Email: "new@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, summary.Role)

	user, err := store.Accounts.FindByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw123456")))

	_, _, err = svc.SignUp(ctx, SignUpInput{Name: "Dup", Username: "dup", Email: f.Customer.Email, Password: "pw123456"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword(strings.Repeat("é", 36))
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, strings.Repeat("é", 36)))

	_, err = HashPassword(strings.Repeat("é", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
