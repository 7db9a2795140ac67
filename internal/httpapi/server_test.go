package httpapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arga-sso/ssoauthority/internal/access"
	"github.com/arga-sso/ssoauthority/internal/cache"
	"github.com/arga-sso/ssoauthority/internal/db"
	"github.com/arga-sso/ssoauthority/internal/identity"
	"github.com/arga-sso/ssoauthority/internal/models"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/sessions"
	"github.com/arga-sso/ssoauthority/internal/ssosession"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

type testRig struct {
	router *gin.Engine
	orch   *orchestrator.Orchestrator
	codec  *tokens.Codec
	mock   sqlmock.Sqlmock
}

func newTestRig(t *testing.T) testRig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	c, err := cache.NewCache(cache.Config{Host: mr.Host(), Port: mr.Port(), Enabled: true})
	require.NoError(t, err)

	sqlDB, mock, err := sqlmock.New()
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

	srv := NewServer(orch, codec)
	router := gin.New()
	srv.RegisterRoutes(router.Group("/api/v1"))
	srv.RegisterWellKnown(router)

	return testRig{router: router, orch: orch, codec: codec, mock: mock}
}

func userRow(id string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "display_name", "email", "phone", "role", "status", "avatar_url", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, "Alice", "alice@example.com", nil, models.RoleUser, models.StatusActive, nil, now, now, nil)
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginEmail_SSOOnlySucceeds(t *testing.T) {
	rig := newTestRig(t)
	now := time.Now().UTC()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	rig.mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("alice@example.com").WillReturnRows(userRow("user-1"))
	bindingRows := sqlmock.NewRows([]string{"id", "user_id", "kind", "subject_id", "password_hash", "last_used_at", "created_at"}).
		AddRow("binding-1", "user-1", models.ProviderEmail, "alice@example.com", string(hash), nil, now)
	rig.mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderEmail, "alice@example.com").WillReturnRows(bindingRows)
	rig.mock.ExpectExec("UPDATE auth_providers SET last_used_at").WillReturnResult(sqlmock.NewResult(0, 1))
	rig.mock.ExpectQuery("SELECT a.code FROM applications").WithArgs("user-1").WillReturnRows(sqlmock.NewRows([]string{"code"}))

	rec := doRequest(t, rig.router, http.MethodPost, "/api/v1/auth/login/email", models.LoginEmailRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var outcome models.LoginOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.NotEmpty(t, outcome.SSOToken)
	assert.Empty(t, outcome.AccessToken)
}

func TestLoginEmail_WrongPasswordIs401(t *testing.T) {
	rig := newTestRig(t)
	now := time.Now().UTC()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	rig.mock.ExpectQuery("SELECT .* FROM users WHERE email").WithArgs("alice@example.com").WillReturnRows(userRow("user-1"))
	bindingRows := sqlmock.NewRows([]string{"id", "user_id", "kind", "subject_id", "password_hash", "last_used_at", "created_at"}).
		AddRow("binding-1", "user-1", models.ProviderEmail, "alice@example.com", string(hash), nil, now)
	rig.mock.ExpectQuery("SELECT .* FROM auth_providers").WithArgs(models.ProviderEmail, "alice@example.com").WillReturnRows(bindingRows)

	rec := doRequest(t, rig.router, http.MethodPost, "/api/v1/auth/login/email", models.LoginEmailRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "InvalidCredentials", envelope["error_code"])
}

func TestValidate_RequiresBearerToken(t *testing.T) {
	rig := newTestRig(t)
	rec := doRequest(t, rig.router, http.MethodPost, "/api/v1/auth/validate", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidate_AcceptsValidAccessToken(t *testing.T) {
	rig := newTestRig(t)
	accessToken, err := rig.codec.SignAccess(tokens.AccessClaims{Subject: "user-1", Role: "user", Name: "Alice"})
	require.NoError(t, err)

	rec := doRequest(t, rig.router, http.MethodPost, "/api/v1/auth/validate", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var user models.LoginUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user-1", user.ID)
}

func TestJWKS_ReturnsPublicKey(t *testing.T) {
	rig := newTestRig(t)
	rec := doRequest(t, rig.router, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var set tokens.JWKSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "RSA", set.Keys[0].Kty)
}

func TestLogoutClient_RequiresClientIDHeader(t *testing.T) {
	rig := newTestRig(t)
	accessToken, err := rig.codec.SignAccess(tokens.AccessClaims{Subject: "user-1", Role: "user"})
	require.NoError(t, err)

	rec := doRequest(t, rig.router, http.MethodPost, "/api/v1/auth/logout/client", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
