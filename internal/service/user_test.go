package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/backend"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/auth"
	"tush00nka/filestash/internal/repository"
)

const testAvatar = "/assets/images/avatar.png"

func newUserService(t *testing.T) (UserService, *outbox) {
	t.Helper()
	db := newTestDB(t)
	mail := &outbox{sent: map[string]string{}}

	factory := backend.NewFactory(backend.Deps{
		Files:      repository.NewFileRepository(db),
		Users:      repository.NewUserRepository(db),
		Accounts:   repository.NewAccountRepository(db),
		Challenges: &memChallenges{codes: map[string]model.VerificationCode{}},
		Sessions:   &memSessions{sessions: map[string]string{}},
		Storage:    newMemBlobs(),
		Mailer:     mail,
		Tokens:     auth.NewTokenIssuer("test-key", time.Hour),
		HashCost:   bcrypt.MinCost,
	})
	return NewUserService(factory, testAvatar), mail
}

func TestSignUpVerifyAndSignOut(t *testing.T) {
	svc, mail := newUserService(t)
	ctx := context.Background()

	accountID, err := svc.SignUp(ctx, "Alice Liddell", "Alice@X.io")
	require.NoError(t, err)
	require.NotEmpty(t, accountID)

	token, err := svc.Verify(ctx, accountID, mail.last("alice@x.io"))
	require.NoError(t, err)

	user, err := svc.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", user.FullName)
	assert.Equal(t, "alice@x.io", user.Email)
	assert.Equal(t, accountID, user.AccountID)
	assert.Equal(t, testAvatar, user.AvatarURL)

	require.NoError(t, svc.SignOut(ctx, token))
	_, err = svc.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSignUpTwiceKeepsOneUser(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, "Alice", "alice@x.io")
	require.NoError(t, err)
	second, err := svc.SignUp(ctx, "Someone Else", "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignIn(t *testing.T) {
	svc, mail := newUserService(t)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	accountID, err := svc.SignUp(ctx, "Bob", "bob@x.io")
	require.NoError(t, err)

	again, err := svc.SignIn(ctx, " BOB@x.io ")
	require.NoError(t, err)
	assert.Equal(t, accountID, again)

	_, err = svc.Verify(ctx, accountID, mail.last("bob@x.io"))
	assert.NoError(t, err)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "", "a@x.io")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.SignUp(ctx, "A", " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.SignIn(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVerifyWrongCode(t *testing.T) {
	svc, mail := newUserService(t)
	ctx := context.Background()

	accountID, err := svc.SignUp(ctx, "Carol", "carol@x.io")
	require.NoError(t, err)

	wrong := "000000"
	if mail.last("carol@x.io") == wrong {
		wrong = "999999"
	}
	_, err = svc.Verify(ctx, accountID, wrong)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
