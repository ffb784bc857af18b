package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/hashing"
	httptransport "github.com/shoutbase/shoutbase-auth/internal/http"
	"github.com/shoutbase/shoutbase-auth/internal/http/handler"
	"github.com/shoutbase/shoutbase-auth/internal/http/middleware"
	"github.com/shoutbase/shoutbase-auth/internal/service"
	"github.com/shoutbase/shoutbase-auth/internal/tenant"
	"github.com/shoutbase/shoutbase-auth/internal/token"
)

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcdef"
)

type testEnv struct {
	router       *gin.Engine
	tenants      *fakeTenantRepo
	memberships  *fakeMembershipRepo
	testimonials *fakeTestimonialRepo
	users        *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:        "development",
		ServiceName:        "shoutbase-auth-test",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		PasswordMinLength:  8,
		PasswordRequireMix: true,
	}

	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	memberships := &fakeMembershipRepo{}
	tokens := newFakeTokenRepo()
	tenants := &fakeTenantRepo{byID: map[int64]domain.Tenant{}}
	testimonials := &fakeTestimonialRepo{}

	issuer := token.NewIssuer(testAccessSecret, testRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, "shoutbase-test")
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	authService := service.NewAuthService(users, profiles, memberships, tokens, noTx{}, issuer, hashing.New(1), node, cfg, zap.NewNop())
	testimonialService := service.NewTestimonialService(testimonials, node, zap.NewNop())

	router := httptransport.NewRouter(
		cfg,
		handler.NewAuthHandler(authService, cfg),
		handler.NewTestimonialHandler(testimonialService),
		&middleware.Auth{AuthService: authService},
		tenant.NewResolver(tenants, nil),
		zap.NewNop(),
	)
	return &testEnv{router: router, tenants: tenants, memberships: memberships, testimonials: testimonials, users: users}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := http.Response{Header: w.Header()}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.RefreshCookieName {
			return cookie
		}
	}
	return nil
}

func TestFullSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Register issues no tokens by default.
	w := env.do(t, http.MethodPost, "/auth/register", gin.H{
		"email": "alice@example.com", "password": "password1", "name": "Alice",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotContains(t, w.Body.String(), "accessToken")
	require.Nil(t, refreshCookie(t, w))

	// Login returns the access token in the body and the refresh token only
	// as an HTTP-only cookie.
	w = env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "alice@example.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginBody struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginBody))
	require.NotEmpty(t, loginBody.AccessToken)
	require.Equal(t, 60, loginBody.ExpiresIn)

	cookie := refreshCookie(t, w)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.NotEmpty(t, cookie.Value)
	require.NotContains(t, w.Body.String(), cookie.Value)

	// Refresh rotates the cookie.
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := refreshCookie(t, w)
	require.NotNil(t, rotated)
	require.NotEqual(t, cookie.Value, rotated.Value)

	// The spent cookie is rejected.
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var refreshBody struct {
		AccessToken string `json:"accessToken"`
	}
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(rotated)
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshBody))
	latest := refreshCookie(t, w)

	// Me works with the fresh access token.
	w = env.do(t, http.MethodGet, "/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+refreshBody.AccessToken)
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice@example.com")

	// Logout clears the cookie and kills the session server-side.
	w = env.do(t, http.MethodPost, "/auth/logout", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+refreshBody.AccessToken)
	})
	require.Equal(t, http.StatusOK, w.Code)
	cleared := refreshCookie(t, w)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	w = env.do(t, http.MethodPost, "/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(latest)
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{"email": "dup@example.com", "password": "password1", "name": "Dup"}
	w := env.do(t, http.MethodPost, "/auth/register", payload, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/auth/register", payload, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "duplicate_email")
}

func TestLoginErrorBodiesAreIdentical(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", gin.H{
		"email": "real@example.com", "password": "password1", "name": "Real",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	unknown := env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "ghost@example.com", "password": "password1",
	}, nil)
	wrong := env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "real@example.com", "password": "nope12345",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, unknown.Code, wrong.Code)
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestRefreshRequiresCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTestimonialRoutesResolveTenant(t *testing.T) {
	env := newTestEnv(t)
	env.tenants.byID[100] = domain.Tenant{ID: 100, Name: "Acme", Slug: "acme", Active: true}
	env.tenants.byID[200] = domain.Tenant{ID: 200, Name: "Gone", Slug: "gone", Active: false}

	w := env.do(t, http.MethodGet, "/tenants/100/testimonials", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown and deactivated tenants are indistinguishable.
	w = env.do(t, http.MethodGet, "/tenants/999/testimonials", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/tenants/200/testimonials", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTestimonialCreateRequiresRole(t *testing.T) {
	env := newTestEnv(t)
	env.tenants.byID[100] = domain.Tenant{ID: 100, Name: "Acme", Slug: "acme", Active: true}

	w := env.do(t, http.MethodPost, "/auth/register", gin.H{
		"email": "viewer@example.com", "password": "password1", "name": "Viewer",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Anonymous callers get 401.
	w = env.do(t, http.MethodPost, "/tenants/100/testimonials", gin.H{
		"authorName": "Anon", "body": "Great!", "rating": 5,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Authenticated users without a membership get 403.
	w = env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "viewer@example.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = env.do(t, http.MethodPost, "/tenants/100/testimonials", gin.H{
		"authorName": "Viewer", "body": "Great!", "rating": 5,
	}, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// An editor membership unlocks the route after re-login mints new claims.
	env.memberships.items = append(env.memberships.items, domain.Membership{
		ID: 1, UserID: env.users.idByEmail("viewer@example.com"), TenantID: 100,
		TenantName: "Acme", Role: domain.RoleEditor, Active: true,
	})
	w = env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "viewer@example.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = env.do(t, http.MethodPost, "/tenants/100/testimonials", gin.H{
		"authorName": "Viewer", "body": "Great!", "rating": 5,
	}, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"status":"pending"`)
}
