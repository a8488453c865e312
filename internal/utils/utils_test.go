package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestParseIdentity_ValidToken(t *testing.T) {
	at, err := NewAccessToken(secret, "42", "member@zoo.org", "gold", time.Minute)
	require.NoError(t, err)

	id, err := ParseIdentity(secret, at.Token)
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "42", id.Subject)
	assert.Equal(t, "member@zoo.org", id.Email)
	assert.Equal(t, "gold", id.MembershipTier)
	assert.Equal(t, at.Token, id.Token)
}

func TestParseIdentity_ExpiredIsGuest(t *testing.T) {
	at, err := NewAccessToken(secret, "42", "member@zoo.org", "", -time.Minute)
	require.NoError(t, err)

	id, err := ParseIdentity(secret, at.Token)
	require.Error(t, err)
	assert.False(t, id.Authenticated)
	assert.Empty(t, id.Token)
}

func TestParseIdentity_Rejections(t *testing.T) {
	at, err := NewAccessToken(secret, "42", "member@zoo.org", "", time.Minute)
	require.NoError(t, err)
	_, err = ParseIdentity("other-secret", at.Token)
	assert.Error(t, err, "wrong secret")

	_, err = ParseIdentity(secret, "not.a.jwt")
	assert.Error(t, err)

	noEmail, err := NewAccessToken(secret, "42", "", "", time.Minute)
	require.NoError(t, err)
	_, err = ParseIdentity(secret, noEmail.Token)
	assert.ErrorIs(t, err, ErrNoEmail)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "email": "a@b.co"})
	raw, err := noExp.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseIdentity(secret, raw)
	assert.Error(t, err, "expiry is required")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseIdentity(secret, raw)
	assert.Error(t, err, "alg none")
}

func TestSubjectString(t *testing.T) {
	assert.Equal(t, "7", subjectString(float64(7)))
	assert.Equal(t, "abc", subjectString("abc"))
	assert.Empty(t, subjectString(nil))
}

func TestLookupTokenHash(t *testing.T) {
	hash, err := HashLookupToken("abc", 4)
	require.NoError(t, err)
	assert.NotContains(t, hash, "abc")
	assert.True(t, VerifyLookupToken(hash, "abc"))
	assert.False(t, VerifyLookupToken(hash, "abd"))

	long := strings.Repeat("x", 100)
	hash, err = HashLookupToken(long, 4)
	require.NoError(t, err)
	assert.True(t, VerifyLookupToken(hash, long))
	assert.False(t, VerifyLookupToken(hash, long[:80]))
}
