package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-key", time.Hour)

	token, err := issuer.Generate("sess-1", "acc-1")
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, "acc-1", claims.AccountID())
}

func TestValidateRejects(t *testing.T) {
	issuer := NewTokenIssuer("test-key", time.Hour)

	other, err := NewTokenIssuer("other-key", time.Hour).Generate("sess-1", "acc-1")
	require.NoError(t, err)
	_, err = issuer.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenIssuer("test-key", -time.Minute).Generate("sess-1", "acc-1")
	require.NoError(t, err)
	_, err = issuer.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))
}
