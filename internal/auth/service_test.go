package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careloop/clinic-booking/internal/booking"
)

func newTestAuth(t *testing.T) *Service {
	t.Helper()
	tokens := NewTokenIssuer("test-secret", time.Hour)
	return NewService(NewMemoryRepository(), NewMemorySessionStore(), tokens, zap.NewNop())
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "dr@example.com", "hunter22", booking.RoleDoctor, "Dr. Akintola")
	require.NoError(t, err)
	assert.Equal(t, booking.RoleDoctor, created.Role)
	assert.Equal(t, "Dr. Akintola", created.Name)

	token, user, err := svc.SignIn(ctx, "dr@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)

	resolved, err := svc.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
	assert.Equal(t, booking.RoleDoctor, resolved.Role)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "p@example.com", "pw123456", booking.RolePatient, "Pat")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "p@example.com", "pw123456", booking.RolePatient, "Other Pat")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInBadCredentials(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	_, _, err := svc.SignIn(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignUp(ctx, "p@example.com", "correct-pw", booking.RolePatient, "Pat")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "p@example.com", "wrong-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOutEndsSession(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "p@example.com", "pw123456", booking.RolePatient, "Pat")
	require.NoError(t, err)

	token, _, err := svc.SignIn(ctx, "p@example.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, token))

	_, err = svc.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCurrentUserRejectsGarbageToken(t *testing.T) {
	svc := newTestAuth(t)

	_, err := svc.CurrentUser(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
