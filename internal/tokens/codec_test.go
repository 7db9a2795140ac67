package tokens

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewCodec(key, &key.PublicKey, Config{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func TestSignAndVerifyAccessToken(t *testing.T) {
	c := testCodec(t)

	tok, err := c.SignAccess(AccessClaims{
		Subject:     "user-1",
		Role:        "user",
		Name:        "Alice",
		Email:       "alice@example.com",
		ClientID:    "portal",
		AllowedApps: []string{"portal", "billing"},
	})
	require.NoError(t, err)

	claims, err := c.Verify(tok, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.ElementsMatch(t, []string{"portal", "billing"}, claims.AllowedApps)
}

func TestVerifyRejectsWrongType(t *testing.T) {
	c := testCodec(t)

	refresh, err := c.SignRefresh(RefreshClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)

	_, err = c.Verify(refresh, TypeAccess)
	require.Error(t, err)
	var wrongType *WrongTypeError
	assert.ErrorAs(t, err, &wrongType)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	c := NewCodec(nil, nil, Config{AccessTokenTTL: -time.Minute})
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	c.privateKey = key
	c.publicKey = &key.PublicKey

	tok, err := c.SignAccess(AccessClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)

	_, err = c.Verify(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	c1 := testCodec(t)
	c2 := testCodec(t)

	tok, err := c1.SignAccess(AccessClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)

	_, err = c2.Verify(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWKSIsCachedAndWellFormed(t *testing.T) {
	c := testCodec(t)

	first := c.JWKS()
	second := c.JWKS()

	require.Len(t, first.Keys, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, "RSA", first.Keys[0].Kty)
	assert.Equal(t, "sig", first.Keys[0].Use)
	assert.Equal(t, "RS256", first.Keys[0].Alg)
	assert.Equal(t, KeyID, first.Keys[0].Kid)
	assert.NotEmpty(t, first.Keys[0].N)
	assert.NotEmpty(t, first.Keys[0].E)
}
