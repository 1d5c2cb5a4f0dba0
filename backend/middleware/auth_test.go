package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{JWTSecret: "test-secret-key", TokenExpireHours: 24}
}

func signClaims(t *testing.T, method jwt.SigningMethod, claims Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := testAuthConfig()

	token, expiresAt, err := GenerateToken("alice", "acme", cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := ParseToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "acme", claims.Tenant)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc.def", "abc.def", true},
		{"  Bearer   abc.def  ", "abc.def", true},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc.def", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testAuthConfig()
	token, _, err := GenerateToken("alice", "acme", cfg)
	require.NoError(t, err)

	now := time.Now()
	expired := signClaims(t, jwt.SigningMethodHS256, Claims{
		Username: "alice",
		Tenant:   "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		},
	}, cfg.JWTSecret)
	otherSecret := signClaims(t, jwt.SigningMethodHS256, Claims{
		Username: "alice",
		Tenant:   "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}, "another-secret")

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"missing scheme", token, http.StatusUnauthorized},
		{"garbage token", "Bearer invalid.token.here", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthMiddleware(cfg))
			router.GET("/api/contracts", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"tenant": GetTenant(c)})
			})

			req := httptest.NewRequest("GET", "/api/contracts", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	cfg := testAuthConfig()
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		method jwt.SigningMethod
		claims Claims
	}{
		{"other signing method", jwt.SigningMethodHS384,
			Claims{Username: "u", Tenant: "t", RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp}}},
		{"missing issuer", jwt.SigningMethodHS256,
			Claims{Username: "u", Tenant: "t", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}},
		{"missing expiry", jwt.SigningMethodHS256,
			Claims{Username: "u", Tenant: "t", RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}}},
		{"missing tenant", jwt.SigningMethodHS256,
			Claims{Username: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(signClaims(t, tt.method, tt.claims, cfg.JWTSecret), cfg)
			assert.Error(t, err)
		})
	}
}

func TestAuthMiddlewareSetsContext(t *testing.T) {
	cfg := testAuthConfig()
	token, _, err := GenerateToken("alice", "acme", cfg)
	require.NoError(t, err)

	var gotUser, gotTenant string
	var ctxUser, ctxTenant any
	router := gin.New()
	router.Use(AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		gotUser, gotTenant = GetUsername(c), GetTenant(c)
		ctxUser = c.Request.Context().Value(logger.UsernameKey)
		ctxTenant = c.Request.Context().Value(logger.TenantKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "acme", gotTenant)
	assert.Equal(t, "alice", ctxUser)
	assert.Equal(t, "acme", ctxTenant)
}

func TestContextAccessorsUnset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetUsername(c))
	assert.Empty(t, GetTenant(c))
	assert.Empty(t, GetRequestID(c))
}
