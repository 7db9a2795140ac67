package rpcapi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/arga-sso/ssoauthority/internal/access"
	"github.com/arga-sso/ssoauthority/internal/cache"
	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/identity"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/sessions"
	"github.com/arga-sso/ssoauthority/internal/ssosession"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

func newTestServer(t *testing.T) (*Server, *tokens.Codec) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.NewCache(cache.Config{Host: mr.Host(), Port: mr.Port(), Enabled: true})
	require.NoError(t, err)

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	database := db.NewDatabaseForTesting(sqlDB)
	users := db.NewUserStore(database)
	apps := db.NewApplicationStore(database)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	codec := tokens.NewCodec(key, &key.PublicKey, tokens.Config{})

	appSess := sessions.NewStore(c, time.Hour, 5)
	ssoSess := ssosession.NewStore(c, time.Hour)
	gate := access.NewGate(apps)
	resolver, err := identity.NewResolver(context.Background(), users, identity.Config{})
	require.NoError(t, err)

	orch := orchestrator.New(codec, appSess, ssoSess, resolver, gate, users, apps, nil)
	return NewServer(orch), codec
}

func withBearer(ctx context.Context, token string) context.Context {
	return metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
}

func TestValidateToken_BadTokenIsInBand(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.ValidateToken(context.Background(), &ValidateTokenRequest{AccessToken: "not-a-token"})
	require.NoError(t, err)
	assert.False(t, resp.IsValid)
	assert.NotEmpty(t, resp.Error)
}

func TestValidateToken_ValidTokenRoundTrips(t *testing.T) {
	srv, codec := newTestServer(t)
	accessToken, err := codec.SignAccess(tokens.AccessClaims{Subject: "user-1", Role: "user", Name: "Alice"})
	require.NoError(t, err)

	resp, err := srv.ValidateToken(context.Background(), &ValidateTokenRequest{AccessToken: accessToken})
	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestLogout_MissingBearerIsInBand(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Logout(context.Background(), &LogoutRequest{Global: true})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestLogout_GlobalIsIdempotent(t *testing.T) {
	srv, codec := newTestServer(t)
	accessToken, err := codec.SignAccess(tokens.AccessClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)
	ctx := withBearer(context.Background(), accessToken)

	resp1, err := srv.Logout(ctx, &LogoutRequest{Global: true})
	require.NoError(t, err)
	assert.True(t, resp1.Success)

	resp2, err := srv.Logout(ctx, &LogoutRequest{Global: true})
	require.NoError(t, err)
	assert.True(t, resp2.Success)
}

func TestGetSessions_EmptyForNewUser(t *testing.T) {
	srv, codec := newTestServer(t)
	accessToken, err := codec.SignAccess(tokens.AccessClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)
	ctx := withBearer(context.Background(), accessToken)

	resp, err := srv.GetSessions(ctx, &GetSessionsRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Sessions.TotalSessions)
}
